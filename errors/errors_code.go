package errors

type Code string

const (
	CodeUnknown Code = "UNKNOWN_ERROR"

	// Key handling.
	CodeDerivation Code = "DERIVATION_ERROR"
	CodeDecryption Code = "DECRYPTION_ERROR"

	// Chain interaction.
	CodeChainRPC   Code = "CHAIN_RPC_ERROR"
	CodeTransfer   Code = "TRANSFER_ERROR"
	DailChain      Code = "DIAL_CHAIN_ERROR"
	PendingNonceAt Code = "PENDING_NONCE_AT_ERROR"
	SignerErr      Code = "SIGNER_ERROR"
	SendTxErr      Code = "SEND_TX_ERROR"
	GetchainIDErr  Code = "GET_CHAIN_ID_ERROR"

	// Persistence.
	CodeStore Code = "STORE_ERROR"

	// Input validation.
	CodeBadRequest Code = "BAD_REQUEST"
)
