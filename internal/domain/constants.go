package domain

const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// MaxLevels is how far up the referral tree a distribution walks.
const MaxLevels = 30

// BaseUnlockedLevel is the ceiling every new wallet starts with.
const BaseUnlockedLevel = 5

// CompanyReserveID is the fixed key of the company reserve row.
const CompanyReserveID uint = 1

// TransactionStatus is the state of a CP ledger row.
type TransactionStatus string

const (
	StatusAvailable TransactionStatus = "available"
	StatusOnHold    TransactionStatus = "onhold"
	StatusReleased  TransactionStatus = "released"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusOnHold, StatusReleased:
		return true
	}
	return false
}

// StatusFor returns the status a freshly recorded leg gets.
func StatusFor(locked bool) TransactionStatus {
	if locked {
		return StatusOnHold
	}
	return StatusAvailable
}

type TransactionType string

const (
	TxEarned   TransactionType = "earned"
	TxUnlocked TransactionType = "unlocked"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxEarned, TxUnlocked:
		return true
	}
	return false
}

// Reason is the business event that triggered a distribution.
type Reason string

const (
	ReasonRegistration Reason = "registration"
	ReasonPurchase     Reason = "purchase"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonRegistration, ReasonPurchase:
		return true
	}
	return false
}

// PointKind classifies non-CP point credits.
type PointKind string

const (
	PointPersonal    PointKind = "personal"
	PointReferral    PointKind = "referral"
	PointReserve     PointKind = "reserve"
	PointUnallocated PointKind = "unallocated"
)

const (
	PurchasePending  = "PENDING"
	PurchaseApproved = "APPROVED"
	PurchaseRejected = "REJECTED"
)

const (
	NotifyCPEarned     = "CP_EARNED"
	NotifyCPOnHold     = "CP_ONHOLD"
	NotifyLevelUnlock  = "LEVEL_UNLOCKED"
	NotifyPointsEarned = "POINTS_EARNED"
	NotifyNewReferral  = "NEW_REFERRAL"
)

// Setting keys for runtime overrides of the purchase split.
const (
	SettingPurchaseSplitPP = "purchase_split_pp"
	SettingPurchaseSplitRP = "purchase_split_rp"
	SettingPurchaseSplitCP = "purchase_split_cp"
	SettingPurchaseSplitCR = "purchase_split_cr"
)
