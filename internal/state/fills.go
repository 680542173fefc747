package state

import (
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/conn"
	"main/pkg/exception"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fill is one confirmed execution journaled for position recovery.
type Fill struct {
	ID        uint64 `gorm:"primaryKey"`
	FillID    string `gorm:"uniqueIndex;size:64"`
	Wallet    string `gorm:"index:idx_fills_scope;size:64"`
	Market    string `gorm:"index:idx_fills_scope;size:32"`
	Side      string `gorm:"size:8"`
	Price     float64
	Size      float64
	CreatedAt time.Time
}

func (Fill) TableName() string {
	return "fills"
}

// Journal persists confirmed fills to Postgres. A nil journal is valid and
// drops everything, so traders can run without persistence.
type Journal struct {
	db *gorm.DB
}

// NewJournal migrates the fill table and returns a journal bound to the
// connection.
func NewJournal(client *conn.Client) (*Journal, error) {
	if client == nil || client.DB() == nil {
		return nil, exception.ErrNilInstance
	}
	if err := client.DB().AutoMigrate(&Fill{}); err != nil {
		return nil, err
	}
	return &Journal{db: client.DB()}, nil
}

// Record stores one fill. Re-recording a fill id is a no-op, matching the
// reducer's apply-once behavior.
func (j *Journal) Record(fill Fill) error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fill_id"}},
			DoNothing: true,
		}).
		Create(&fill).Error
}

// RecoverPosition replays the journaled fills for one (wallet, market) pair
// and returns the resulting position.
func (j *Journal) RecoverPosition(wallet, market string) (model.Position, error) {
	if j == nil || j.db == nil {
		return model.Position{Wallet: wallet, Market: market}, nil
	}

	var fills []Fill
	if err := j.db.
		Where("wallet = ? AND market = ?", wallet, market).
		Order("id ASC").
		Find(&fills).Error; err != nil {
		return model.Position{}, err
	}

	reducer := NewReducer()
	for _, fill := range fills {
		side := enum.OrderSideBuy
		if fill.Side == enum.OrderSideSell.String() {
			side = enum.OrderSideSell
		}
		reducer.ApplyFill(wallet, market, side, fill.Price, fill.Size, fill.FillID)
	}
	return reducer.Position(wallet, market), nil
}
