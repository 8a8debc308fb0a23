package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/lightsteem/lightsteem-go/pkg/log"
	"github.com/lightsteem/lightsteem-go/pkg/txbuilder"
)

const inMemorySqliteDSN = "file::memory:?cache=shared"

var (
	ErrNotFound          = errors.New("journal entry not found")
	ErrUnsupportedDriver = errors.New("unsupported journal driver")
)

// Config selects the journal database. An empty Driver disables the journal.
//
// For sqlite an empty DSN opens a shared in-memory database. For postgres DSN is a
// connection string and Schema, when set, prefixes the table name.
type Config struct {
	Driver string `env:"STEEM_JOURNAL_DRIVER" env-default:"" validate:"omitempty,oneof=sqlite postgres"`
	DSN    string `env:"STEEM_JOURNAL_DSN" env-default:""`
	Schema string `env:"STEEM_JOURNAL_SCHEMA" env-default:""`
}

// Enabled reports whether a driver is configured.
func (c Config) Enabled() bool { return c.Driver != "" }

// Status is the lifecycle position of a journaled transaction.
type Status string

const (
	StatusSigned    Status = "signed"
	StatusBroadcast Status = "broadcast"
	StatusFailed    Status = "failed"
)

// Entry is one journaled transaction, keyed by transaction id.
type Entry struct {
	ID             uint      `gorm:"primaryKey"`
	TxID           string    `gorm:"column:tx_id;size:40;uniqueIndex;not null"`
	Chain          string    `gorm:"column:chain;size:64"`
	RefBlockNum    uint16    `gorm:"column:ref_block_num"`
	RefBlockPrefix uint32    `gorm:"column:ref_block_prefix"`
	Expiration     time.Time `gorm:"column:expiration"`
	Operations     string    `gorm:"column:operations;type:text"`
	Signatures     string    `gorm:"column:signatures;type:text"`
	Status         Status    `gorm:"column:status;size:16;index"`
	Stage          string    `gorm:"column:stage;size:16"`
	Result         string    `gorm:"column:result;type:text"`
	Error          string    `gorm:"column:error;type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Entry) TableName() string {
	return "signed_transactions"
}

// SignatureList returns the hex signatures stored with the entry.
func (e Entry) SignatureList() []string {
	if e.Signatures == "" {
		return nil
	}
	return strings.Split(e.Signatures, ",")
}

// Journal records signed and broadcast transactions. It implements txbuilder.Observer.
type Journal struct {
	db *gorm.DB
	lg log.Logger
}

var _ txbuilder.Observer = (*Journal)(nil)

// Open connects to the configured database and migrates the journal table.
func Open(cfg Config, lg log.Logger) (*Journal, error) {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	lg = lg.WithName("journal")

	var dial gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			lg.Info("opening in-memory sqlite journal")
			dsn = inMemorySqliteDSN
		}
		dial = sqlite.Open(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: postgres requires a DSN", ErrUnsupportedDriver)
		}
		dial = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedDriver, cfg.Driver)
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.Schema != "" {
		gormCfg.NamingStrategy = schema.NamingStrategy{TablePrefix: cfg.Schema + "."}
	}

	db, err := gorm.Open(dial, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if cfg.Driver == "postgres" && cfg.Schema != "" {
		lg.Debug("creating schema", "schema", cfg.Schema)
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", cfg.Schema)).Error; err != nil {
			return nil, fmt.Errorf("create schema %s: %w", cfg.Schema, err)
		}
	}
	return New(db, lg)
}

// New wraps an open database and migrates the journal table.
func New(db *gorm.DB, lg log.Logger) (*Journal, error) {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db, lg: lg}, nil
}

// Close closes the underlying connection pool.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts entry or replaces the journaled state of the same transaction id.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	if entry.TxID == "" {
		return fmt.Errorf("journal entry without a transaction id")
	}
	return j.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tx_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chain", "ref_block_num", "ref_block_prefix", "expiration", "operations",
			"signatures", "status", "stage", "result", "error", "updated_at",
		}),
	}).Create(&entry).Error
}

// MarkBroadcast sets the status of txID to broadcast and stores the node result.
func (j *Journal) MarkBroadcast(ctx context.Context, txID string, result json.RawMessage) error {
	res := j.db.WithContext(ctx).Model(&Entry{}).Where("tx_id = ?", txID).Updates(map[string]any{
		"status": StatusBroadcast,
		"stage":  txbuilder.StageBroadcast,
		"result": string(result),
		"error":  "",
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, txID)
	}
	return nil
}

// Get returns the entry for txID.
func (j *Journal) Get(ctx context.Context, txID string) (*Entry, error) {
	var entry Entry
	err := j.db.WithContext(ctx).Where("tx_id = ?", txID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, txID)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns up to limit entries, most recent first. A non-positive limit returns all entries.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	q := j.db.WithContext(ctx).Order("updated_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func entryFromEvent(ev txbuilder.Event, status Status) (Entry, error) {
	entry := Entry{TxID: ev.TxID, Chain: ev.Chain, Status: status, Stage: ev.Stage, Result: string(ev.Result)}
	if ev.Err != nil {
		entry.Error = ev.Err.Error()
	}
	if tx := ev.Transaction; tx != nil {
		entry.RefBlockNum = tx.RefBlockNum
		entry.RefBlockPrefix = tx.RefBlockPrefix
		entry.Expiration = tx.Expiration.Time

		ops, err := json.Marshal(tx.Operations)
		if err != nil {
			return Entry{}, err
		}
		entry.Operations = string(ops)

		sigs := make([]string, len(tx.Signatures))
		for i, sig := range tx.Signatures {
			sigs[i] = sig.String()
		}
		entry.Signatures = strings.Join(sigs, ",")
	}
	return entry, nil
}

func (j *Journal) TransactionSigned(ctx context.Context, ev txbuilder.Event) {
	j.record(ctx, ev, StatusSigned)
}

func (j *Journal) TransactionBroadcast(ctx context.Context, ev txbuilder.Event) {
	j.record(ctx, ev, StatusBroadcast)
}

// TransactionFailed journals failures of digested transactions; earlier failures have no id and are only logged.
func (j *Journal) TransactionFailed(ctx context.Context, ev txbuilder.Event) {
	if ev.TxID == "" {
		j.lg.Debug("not journaling failure without transaction id", "stage", ev.Stage, "error", ev.Err)
		return
	}
	j.record(ctx, ev, StatusFailed)
}

func (j *Journal) record(ctx context.Context, ev txbuilder.Event, status Status) {
	entry, err := entryFromEvent(ev, status)
	if err == nil {
		err = j.Record(ctx, entry)
	}
	if err != nil {
		j.lg.Error("failed to journal transaction", "txid", ev.TxID, "status", status, "error", err)
	}
}
