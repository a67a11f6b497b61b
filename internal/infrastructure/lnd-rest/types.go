package lndrest

// Wire types for the subset of the LND REST API the connector uses. Byte
// fields travel base64 encoded, int64 fields as decimal strings.

type chainInfo struct {
	Chain   string `json:"chain"`
	Network string `json:"network"`
}

type getInfoResponse struct {
	Alias          string      `json:"alias"`
	Version        string      `json:"version"`
	IdentityPubkey string      `json:"identity_pubkey"`
	Chains         []chainInfo `json:"chains"`
}

type sendPaymentRequest struct {
	PaymentRequest    string            `json:"payment_request,omitempty"`
	Dest              []byte            `json:"dest,omitempty"`
	Amt               int64             `json:"amt,omitempty"`
	PaymentHash       []byte            `json:"payment_hash,omitempty"`
	DestCustomRecords map[uint64][]byte `json:"dest_custom_records,omitempty"`
}

type paymentRoute struct {
	TotalFees string `json:"total_fees"`
	TotalAmt  string `json:"total_amt"`
}

type sendPaymentResponse struct {
	PaymentError    string        `json:"payment_error"`
	PaymentPreimage []byte        `json:"payment_preimage"`
	PaymentHash     []byte        `json:"payment_hash"`
	PaymentRoute    *paymentRoute `json:"payment_route"`
}

type addInvoiceRequest struct {
	Value int64  `json:"value"`
	Memo  string `json:"memo,omitempty"`
}

type addInvoiceResponse struct {
	RHash          []byte `json:"r_hash"`
	PaymentRequest string `json:"payment_request"`
}

type signMessageRequest struct {
	Msg []byte `json:"msg"`
}

type signMessageResponse struct {
	Signature string `json:"signature"`
}

type channelBalanceResponse struct {
	Balance string `json:"balance"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
