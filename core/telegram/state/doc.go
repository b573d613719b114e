// Package state keeps per-user conversation sessions in process memory.
// A session is a state tag plus a typed payload; each flow owns one Manager
// so sessions of different flows never share data.
package state
