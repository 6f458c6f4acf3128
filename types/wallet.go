package types

// Wallet is a validator's credential. The mnemonic is printed once at the end
// of a run and otherwise only lives in memory.
type Wallet struct {
	Mnemonic string
	Address  string
}

// Credential pairs a validator with its wallet for the final report.
type Credential struct {
	Node     string
	Mnemonic string
	Address  string
}
