// Package memory holds every repository in process memory. It backs
// DB_DRIVER=memory and the controller and handler tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	. "vmtracker/internal/models"
	"vmtracker/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/clock"
	"gorm.io/gorm"
)

// Store owns the rows for all repositories. Rows are held by value and
// copied on every read, so callers never share memory with the store.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	clock clock.Clock
	log   logger.Logger

	tables tables
}

type tables struct {
	lastID          int
	users           map[int]User
	services        map[int]MaintenanceService
	vehicles        map[int]Vehicle
	readings        map[int]OdometerReading
	requests        map[int]MaintenanceRequest
	requestServices map[int]MaintenanceRequestService
}

func newTables() tables {
	return tables{
		users:           map[int]User{},
		services:        map[int]MaintenanceService{},
		vehicles:        map[int]Vehicle{},
		readings:        map[int]OdometerReading{},
		requests:        map[int]MaintenanceRequest{},
		requestServices: map[int]MaintenanceRequestService{},
	}
}

func (t tables) clone() tables {
	return tables{
		lastID:          t.lastID,
		users:           maps.Clone(t.users),
		services:        maps.Clone(t.services),
		vehicles:        maps.Clone(t.vehicles),
		readings:        maps.Clone(t.readings),
		requests:        maps.Clone(t.requests),
		requestServices: maps.Clone(t.requestServices),
	}
}

func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.WallClock
	}

	return &Store{
		clock:  clk,
		log:    logger.New("memoryStore"),
		tables: newTables(),
	}
}

// New returns a store and the repository set reading from it.
func New(clk clock.Clock) (*Store, repositories.Repository) {
	store := NewStore(clk)
	return store, store.Repositories()
}

func (s *Store) Repositories() repositories.Repository {
	return repositories.Repository{
		User:               &userRepository{store: s},
		Vehicle:            &vehicleRepository{store: s},
		Odometer:           &odometerRepository{store: s},
		MaintenanceService: &maintenanceServiceRepository{store: s},
		MaintenanceRequest: &maintenanceRequestRepository{store: s},
	}
}

type txKey struct{}

func (s *Store) inTransaction(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lockForWrite takes the row lock. Writes from outside a unit of work first
// wait for the running one to finish, so a rollback never discards them.
func (s *Store) lockForWrite(ctx context.Context) func() {
	if s.inTransaction(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}

	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// Execute serializes units of work and restores the previous state when fn
// fails or panics. The tx passed to fn is always nil; memory repositories
// ignore it. A call made with the ctx of a running unit of work joins it.
func (s *Store) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) (err error) {
	log := s.log.Function("Execute")

	if s.inTransaction(ctx) {
		return fn(ctx, nil)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.tables.clone()
	s.mu.RUnlock()

	rollback := func() {
		s.mu.Lock()
		s.tables = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			err = log.ErrMsg(fmt.Sprintf("panic during transaction: %v", r))
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, s), nil); err != nil {
		rollback()
		return err
	}

	return nil
}

func (s *Store) nextID() int {
	s.tables.lastID++
	return s.tables.lastID
}

func (s *Store) stamp(model *BaseModel) {
	now := s.clock.Now().UTC()
	if model.ID == 0 {
		model.ID = s.nextID()
		model.CreatedAt = now
	}
	model.UpdatedAt = now
}

// vehicleWithOwner must be called with mu held.
func (s *Store) vehicleWithOwner(id int) *Vehicle {
	vehicle, ok := s.tables.vehicles[id]
	if !ok {
		return nil
	}
	if owner, ok := s.tables.users[vehicle.UserID]; ok {
		vehicle.User = &owner
	}
	return &vehicle
}
