package sales

// TenderMethod represents how a payment or expense was settled
type TenderMethod string

const (
	TenderCash     TenderMethod = "CASH"
	TenderCard     TenderMethod = "CARD"
	TenderTransfer TenderMethod = "TRANSFER"
	TenderWallet   TenderMethod = "WALLET" // digital wallets (Yape, Plin)
	TenderCredit   TenderMethod = "CREDIT" // store credit (fiado)
)

// IsValid checks if the method is a valid TenderMethod
func (m TenderMethod) IsValid() bool {
	switch m {
	case TenderCash, TenderCard, TenderTransfer, TenderWallet, TenderCredit:
		return true
	}
	return false
}

// String returns the string representation of TenderMethod
func (m TenderMethod) String() string {
	return string(m)
}

// IsCashEquivalent reports whether the tender physically enters the drawer
func (m TenderMethod) IsCashEquivalent() bool {
	return m == TenderCash
}
