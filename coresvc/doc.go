// Package coresvc provides the collaborators most modules need: a clock, a logger bound
// to the module using it and a runtime configuration holder.
//
// Register them with [AddSystemClock], [AddLogger] and [AddConfiguration].
package coresvc
