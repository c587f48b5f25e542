// Package models defines the incident point entity together with the pure
// derivations the rest of the application builds on: urgency ranks and
// colours, responsible groups, location labels, elapsed-time formatting,
// list ordering and filtering, per-service history, and the flat record
// representation used by the local and remote stores.
package models
