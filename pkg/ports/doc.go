/*
Package ports defines the boundary interfaces between the Weft engine core
and its collaborators.

The engine only consumes these capabilities; building and bootstrapping them
(registering functions, opening connections, serving transports) is entirely
the host's responsibility. Adapters implementing the ports live under
pkg/adapters.
*/
package ports
