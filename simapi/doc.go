// Package simapi is a typed client for the remote cloud simulation service.
//
// Every dynamical computation (orbit propagation, sensor models, control
// laws, estimation) runs inside the remote service; this package only
// creates remote objects, sets parameters, wires message references,
// requests tick execution, and queries the recorded telemetry back as
// dataframes. Handles returned by the client (Simulation, Object, Message)
// are thin references to remote GUIDs bound to one session.
package simapi
