package auth

// Party identifies an on-platform account: a bill holder, a borrower, the
// issuer, the treasury, or an in-process component registered as a ledger
// operator. The transport layer resolves the caller's party from verified
// credentials; application services only compare parties.
type Party string

// Valid reports whether the party is non-empty.
func (p Party) Valid() bool { return p != "" }
