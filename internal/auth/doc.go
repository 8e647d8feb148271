// Package auth implements the session and token core: opaque bearer
// secrets with lazy time-based expiry, sliding-expiry sessions, a
// soft-deleting per-session cookie store, single-use consumable tokens
// scoped to named capabilities, and password-backed user identity over a
// read-only clearance ladder.
//
// All validity decisions happen at query time against an injected clock;
// no background sweeper exists. The only cross-request concurrency
// primitive is TokenStore.ForceExpire, a single conditional UPDATE whose
// affected-row count decides races.
//
// Known weakness: bearer secrets are stored at rest in their presented
// (base64url) form and compared by equality, so a storage compromise
// yields usable credentials directly. Hashing at rest changes the lookup
// contract and is a host decision that must be made before production use.
package auth
