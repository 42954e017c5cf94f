package sink

import (
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/NeoPangea/dbatools/event"
	"github.com/NeoPangea/dbatools/logtime"
)

// IndexAction is the SQLite row for one reconstructed maintenance action.
// The fixed fields get typed columns so the table is directly queryable;
// free-form comment fields land in extra_json.
type IndexAction struct {
	ID              uint       `gorm:"primaryKey"`
	IngestedAt      time.Time  `gorm:"index"`
	ComputerName    string     `gorm:"index;size:128"`
	InstanceName    string     `gorm:"size:128"`
	SqlInstanceName string     `gorm:"index;size:128"`
	DatabaseName    string     `gorm:"index;size:128"`
	IndexName       string     `gorm:"size:128"`
	SchemaName      string     `gorm:"size:128"`
	TableName       string     `gorm:"index;size:128"`
	Action          string     `gorm:"index;size:32"`
	Options         string     `gorm:"type:text"`
	Outcome         string     `gorm:"index;size:64"`
	Duration        string     `gorm:"size:32"`
	DurationSeconds int64      `gorm:"index"`
	EndTime         *time.Time `gorm:"index"`
	ExtraJSON       string     `gorm:"type:text"`
}

// Store appends records to a SQLite database.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (creating if needed) the SQLite database at path and
// migrates the index_actions table.
func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&IndexAction{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Write(rec event.Record) error {
	row := IndexAction{
		IngestedAt:      logtime.Now(),
		ComputerName:    rec.ComputerName(),
		InstanceName:    rec.InstanceName(),
		SqlInstanceName: rec.SqlInstanceName(),
		DatabaseName:    rec.Database(),
		IndexName:       rec.Index(),
		SchemaName:      rec.Schema(),
		TableName:       rec.Table(),
		Action:          rec.Action(),
		Options:         rec.Options(),
		Outcome:         rec.Outcome(),
		Duration:        rec.Duration(),
	}
	if d, ok := logtime.ParseDuration(rec.Duration()); ok {
		row.DurationSeconds = int64(d / time.Second)
	}
	if ts, ok := logtime.Parse(rec.EndTime()); ok {
		row.EndTime = &ts
	}
	if extra := extraFields(rec); len(extra) > 0 {
		raw, err := json.Marshal(extra)
		if err != nil {
			return err
		}
		row.ExtraJSON = string(raw)
	}
	return s.db.Create(&row).Error
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

var fixedFields = map[string]struct{}{
	event.FieldComputerName:    {},
	event.FieldInstanceName:    {},
	event.FieldSqlInstanceName: {},
	event.FieldDatabase:        {},
	event.FieldIndex:           {},
	event.FieldSchema:          {},
	event.FieldTable:           {},
	event.FieldAction:          {},
	event.FieldOptions:         {},
	event.FieldOutcome:         {},
	event.FieldDuration:        {},
	event.FieldEndTime:         {},
}

// extraFields returns the free-form comment and status fields, i.e.
// everything without a typed column of its own.
func extraFields(rec event.Record) map[string]string {
	var extra map[string]string
	for k, v := range rec {
		if _, fixed := fixedFields[k]; fixed {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[k] = v
	}
	return extra
}
