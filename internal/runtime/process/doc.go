// Package process executes supervised commands as local child processes.
//
// Children inherit the supervisor's stdin, stdout and stderr; nothing is
// captured or redirected. On Unix every child is started in its own process
// group and Terminate signals the whole group, so commands that spawn their
// own children (cargo invoking rustc, cargo run executing the built game)
// receive the request as well. On Linux the group additionally receives
// SIGTERM should the supervisor die without cleaning up.
//
// Windows offers no equivalent job control: Terminate reaches only the
// direct child and grandchildren may remain running. Tree-wide termination
// would require job objects or other host-specific integrations.
package process
