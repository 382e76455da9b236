package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yagati/internal/store"
	"yagati/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const accountRowID = 1

// GormStore implements store.Store on Gorm + SQLite.
type GormStore struct {
	db *gorm.DB
}

var _ store.Store = (*GormStore)(nil)

// NewGormStore opens (creating if needed) the SQLite file at path and runs
// migrations. WAL keeps the scheduler writer and the HTTP readers from
// blocking each other.
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newGormStore(db)
}

// NewGormStoreFromDB wraps an existing connection; tests use this with an
// in-memory DSN.
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm store: db cannot be nil")
	}
	return newGormStore(db)
}

func newGormStore(db *gorm.DB) (*GormStore, error) {
	models := []interface{}{
		&model.AccountModel{},
		&model.OpenTradeModel{},
		&model.ClosedTradeModel{},
		&model.SetupModel{},
		&model.EventLogModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --------------------------- Account ------------------------------------

func (s *GormStore) Account(ctx context.Context) (*store.AccountState, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var m model.AccountModel
	if err := s.db.WithContext(ctx).Where("id = ?", accountRowID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := accountModelToRecord(m)
	return &rec, nil
}

func (s *GormStore) CreateAccount(ctx context.Context, rec store.AccountState) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	m := newAccountModel(rec)
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) UpdateAccount(ctx context.Context, rec store.AccountState) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	res := s.db.WithContext(ctx).Model(&model.AccountModel{}).
		Where("id = ?", accountRowID).
		Updates(map[string]interface{}{
			"equity":         rec.Equity,
			"total_trades":   rec.TotalTrades,
			"winning_trades": rec.WinningTrades,
			"losing_trades":  rec.LosingTrades,
			"updated_at":     unixOrNow(rec.UpdatedAt),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --------------------------- Trades -------------------------------------

func (s *GormStore) OpenTrades(ctx context.Context) ([]store.OpenTrade, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []model.OpenTradeModel
	if err := s.db.WithContext(ctx).Order("opened_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.OpenTrade, 0, len(models))
	for _, m := range models {
		out = append(out, openTradeModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) CreateOpenTrade(ctx context.Context, rec store.OpenTrade) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("open trade id required")
	}
	m := newOpenTradeModel(rec)
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) DeleteOpenTrade(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.OpenTradeModel{}).Error
}

func (s *GormStore) CreateClosedTrade(ctx context.Context, rec store.ClosedTrade) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	m := model.ClosedTradeModel{
		ID:            rec.ID,
		Symbol:        strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Timeframe:     rec.Timeframe,
		Direction:     rec.Direction,
		EntryPrice:    rec.EntryPrice,
		PositionSize:  rec.PositionSize,
		StopLoss:      rec.StopLoss,
		TakeProfit:    rec.TakeProfit,
		RiskAmount:    rec.RiskAmount,
		EquityAtOpen:  rec.EquityAtOpen,
		OpenedAtUnix:  rec.OpenedAt.UnixMilli(),
		SetupIdentity: rec.SetupID,
		ExitPrice:     rec.ExitPrice,
		ClosedAtUnix:  unixOrNow(rec.ClosedAt),
		PnL:           rec.PnL,
		PnLPercent:    rec.PnLPercent,
		ExitReason:    rec.ExitReason,
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) ClosedTrades(ctx context.Context, limit int) ([]store.ClosedTrade, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []model.ClosedTradeModel
	if err := s.db.WithContext(ctx).
		Order("closed_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.ClosedTrade, 0, len(models))
	for _, m := range models {
		out = append(out, closedTradeModelToRecord(m))
	}
	return out, nil
}

// --------------------------- Setups -------------------------------------

func (s *GormStore) FormingSetups(ctx context.Context) ([]store.SetupRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	var models []model.SetupModel
	if err := s.db.WithContext(ctx).
		Where("status = ?", "forming").
		Order("detected_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.SetupRecord, 0, len(models))
	for _, m := range models {
		out = append(out, setupModelToRecord(m))
	}
	return out, nil
}

func (s *GormStore) CreateSetup(ctx context.Context, rec store.SetupRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("setup id required")
	}
	m := newSetupModel(rec)
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) UpdateSetup(ctx context.Context, rec store.SetupRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	res := s.db.WithContext(ctx).Model(&model.SetupModel{}).
		Where("symbol = ? AND timeframe = ? AND setup_type = ?",
			strings.ToUpper(strings.TrimSpace(rec.Symbol)), rec.Timeframe, rec.SetupType).
		Updates(map[string]interface{}{
			"status":           rec.Status,
			"confidence":       rec.Confidence,
			"direction":        rec.Direction,
			"context":          rec.Context,
			"score":            rec.Score,
			"feature_snapshot": datatypes.JSON(rec.FeatureSnapshot),
			"detected_at":      unixOrNow(rec.DetectedAt),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --------------------------- Events -------------------------------------

func (s *GormStore) AppendEvent(ctx context.Context, ev store.EventLog) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	m := model.EventLogModel{
		CycleType:     ev.CycleType,
		Context:       ev.Context,
		Status:        ev.Status,
		Note:          ev.Note,
		CreatedAtUnix: unixOrNow(ev.CreatedAt),
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) RecentEvents(ctx context.Context, limit int) ([]store.EventLog, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store not initialized")
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var models []model.EventLogModel
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]store.EventLog, 0, len(models))
	for _, m := range models {
		out = append(out, store.EventLog{
			ID:        m.ID,
			CycleType: m.CycleType,
			Context:   m.Context,
			Status:    m.Status,
			Note:      m.Note,
			CreatedAt: time.UnixMilli(m.CreatedAtUnix),
		})
	}
	return out, nil
}

// --------------------------- Model Helpers ------------------------------

func newAccountModel(rec store.AccountState) model.AccountModel {
	return model.AccountModel{
		ID:             accountRowID,
		Equity:         rec.Equity,
		InitialCapital: rec.InitialCapital,
		TotalTrades:    rec.TotalTrades,
		WinningTrades:  rec.WinningTrades,
		LosingTrades:   rec.LosingTrades,
		UpdatedAtUnix:  unixOrNow(rec.UpdatedAt),
	}
}

func accountModelToRecord(m model.AccountModel) store.AccountState {
	return store.AccountState{
		Equity:         m.Equity,
		InitialCapital: m.InitialCapital,
		TotalTrades:    m.TotalTrades,
		WinningTrades:  m.WinningTrades,
		LosingTrades:   m.LosingTrades,
		UpdatedAt:      time.UnixMilli(m.UpdatedAtUnix),
	}
}

func newOpenTradeModel(rec store.OpenTrade) model.OpenTradeModel {
	return model.OpenTradeModel{
		ID:            rec.ID,
		Symbol:        strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Timeframe:     rec.Timeframe,
		Direction:     rec.Direction,
		EntryPrice:    rec.EntryPrice,
		PositionSize:  rec.PositionSize,
		StopLoss:      rec.StopLoss,
		TakeProfit:    rec.TakeProfit,
		RiskAmount:    rec.RiskAmount,
		EquityAtOpen:  rec.EquityAtOpen,
		OpenedAtUnix:  unixOrNow(rec.OpenedAt),
		SetupIdentity: rec.SetupID,
	}
}

func openTradeModelToRecord(m model.OpenTradeModel) store.OpenTrade {
	return store.OpenTrade{
		ID:           m.ID,
		Symbol:       m.Symbol,
		Timeframe:    m.Timeframe,
		Direction:    m.Direction,
		EntryPrice:   m.EntryPrice,
		PositionSize: m.PositionSize,
		StopLoss:     m.StopLoss,
		TakeProfit:   m.TakeProfit,
		RiskAmount:   m.RiskAmount,
		EquityAtOpen: m.EquityAtOpen,
		OpenedAt:     time.UnixMilli(m.OpenedAtUnix),
		SetupID:      m.SetupIdentity,
	}
}

func closedTradeModelToRecord(m model.ClosedTradeModel) store.ClosedTrade {
	return store.ClosedTrade{
		OpenTrade: store.OpenTrade{
			ID:           m.ID,
			Symbol:       m.Symbol,
			Timeframe:    m.Timeframe,
			Direction:    m.Direction,
			EntryPrice:   m.EntryPrice,
			PositionSize: m.PositionSize,
			StopLoss:     m.StopLoss,
			TakeProfit:   m.TakeProfit,
			RiskAmount:   m.RiskAmount,
			EquityAtOpen: m.EquityAtOpen,
			OpenedAt:     time.UnixMilli(m.OpenedAtUnix),
			SetupID:      m.SetupIdentity,
		},
		ExitPrice:  m.ExitPrice,
		ClosedAt:   time.UnixMilli(m.ClosedAtUnix),
		PnL:        m.PnL,
		PnLPercent: m.PnLPercent,
		ExitReason: m.ExitReason,
	}
}

func newSetupModel(rec store.SetupRecord) model.SetupModel {
	snapshot := rec.FeatureSnapshot
	if len(snapshot) == 0 {
		snapshot = []byte("{}")
	}
	return model.SetupModel{
		ID:              rec.ID,
		Symbol:          strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Timeframe:       rec.Timeframe,
		SetupType:       rec.SetupType,
		Status:          rec.Status,
		Confidence:      rec.Confidence,
		Direction:       rec.Direction,
		Context:         rec.Context,
		Score:           rec.Score,
		FeatureSnapshot: datatypes.JSON(snapshot),
		DetectedAtUnix:  unixOrNow(rec.DetectedAt),
	}
}

func setupModelToRecord(m model.SetupModel) store.SetupRecord {
	return store.SetupRecord{
		ID:              m.ID,
		Symbol:          m.Symbol,
		Timeframe:       m.Timeframe,
		SetupType:       m.SetupType,
		Status:          m.Status,
		Confidence:      m.Confidence,
		Direction:       m.Direction,
		Context:         m.Context,
		Score:           m.Score,
		FeatureSnapshot: []byte(m.FeatureSnapshot),
		DetectedAt:      time.UnixMilli(m.DetectedAtUnix),
	}
}

func unixOrNow(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UnixMilli()
	}
	return t.UnixMilli()
}
