package domain

import "github.com/shopspring/decimal"

type Shop struct {
	ID          int64           `db:"id" json:"id"`
	OwnerID     string          `db:"owner_id" json:"owner_id"`
	OwnerName   string          `db:"owner_name" json:"owner_name"`
	Location    string          `db:"location" json:"location"` // opaque placement token, never interpreted here
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	OwnerIndex  int             `db:"owner_index" json:"owner_index"`
	Boost       decimal.Decimal `db:"boost" json:"boost"`
	CreatedAt   int64           `db:"created_at" json:"created_at"`

	// Derived on read from transaction history; never persisted.
	Heat decimal.Decimal `db:"-" json:"heat"`
}

// Listing is one priced, stocked tier of a sellable item under a shop.
// Several rows may share (shop_id, item_hash) at different prices.
type Listing struct {
	ID          int64           `db:"id" json:"id"`
	ShopID      int64           `db:"shop_id" json:"shop_id"`
	ItemHash    string          `db:"item_hash" json:"item_hash"`
	HashVersion int             `db:"hash_version" json:"hash_version"`
	ItemData    string          `db:"item_data" json:"item_data"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	CreatedAt   int64           `db:"created_at" json:"created_at"`
}

type BulletinMessage struct {
	ID        int64  `db:"id" json:"id"`
	OwnerID   string `db:"owner_id" json:"owner_id"`
	OwnerName string `db:"owner_name" json:"owner_name"`
	Content   string `db:"content" json:"content"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
	ExpireAt  int64  `db:"expire_at" json:"expire_at"`
}

type Notification struct {
	ID          int64  `db:"id" json:"id"`
	RecipientID string `db:"recipient_id" json:"recipient_id"`
	Message     string `db:"message" json:"message"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
}

// TransactionRecord is one append-only log row per price tier consumed,
// priced at that tier's own unit price.
type TransactionRecord struct {
	ID          int64           `db:"id" json:"id"`
	BuyerID     string          `db:"buyer_id" json:"buyer_id"`
	SellerID    string          `db:"seller_id" json:"seller_id"`
	ShopID      int64           `db:"shop_id" json:"shop_id"`
	ItemHash    string          `db:"item_hash" json:"item_hash"`
	HashVersion int             `db:"hash_version" json:"hash_version"`
	Amount      int             `db:"amount" json:"amount"`
	Price       decimal.Decimal `db:"price" json:"price"`
	CreatedAt   int64           `db:"created_at" json:"created_at"`
}

type BlacklistEntry struct {
	ItemHash     string `db:"item_hash" json:"item_hash"`
	HashVersion  int    `db:"hash_version" json:"hash_version"`
	ItemSnapshot string `db:"item_snapshot" json:"item_snapshot,omitempty"`
	CreatedAt    int64  `db:"created_at" json:"created_at"`
}

// FeeOverride replaces the global fee rate for one item identity.
// Rate is a percentage, not a fraction.
type FeeOverride struct {
	ItemHash    string          `db:"item_hash" json:"item_hash"`
	HashVersion int             `db:"hash_version" json:"hash_version"`
	Rate        decimal.Decimal `db:"rate" json:"rate"`
	CreatedAt   int64           `db:"created_at" json:"created_at"`
}

type AdminLog struct {
	ID        int64  `db:"id" json:"id"`
	AdminID   string `db:"admin_id" json:"admin_id"`
	AdminName string `db:"admin_name" json:"admin_name"`
	Action    string `db:"action" json:"action"`
	Target    string `db:"target" json:"target"`
	Details   string `db:"details" json:"details"`
	CreatedAt int64  `db:"created_at" json:"created_at"`
}
