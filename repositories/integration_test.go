//go:build integration

package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cermont/config"
	"cermont/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:16-alpine"
	pgUser     = "cermont"
	pgPassword = "cermont"
	pgDatabase = "cermont_test"
)

// startPostgres runs a throwaway postgres, applies the migrations and returns a pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        pgImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port.Port(), pgDatabase)
	require.NoError(t, config.RunMigrations(dsn, config.MigrateUp))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRepositoriesAgainstPostgres(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	customers := NewCustomerRepository(pool)
	orders := NewOrderRepository(pool)

	admin := &models.User{Email: "admin@cermont.co", Password: "hash", Name: "Admin", Role: models.RoleAdmin, Active: true}
	require.NoError(t, users.Create(ctx, admin))

	t.Run("duplicate email maps to ErrDuplicate", func(t *testing.T) {
		dup := &models.User{Email: admin.Email, Password: "hash", Name: "Other", Role: models.RoleTecnico, Active: true}
		assert.ErrorIs(t, users.Create(ctx, dup), ErrDuplicate)
	})

	t.Run("failed logins and unlock", func(t *testing.T) {
		until := time.Now().Add(15 * time.Minute)
		require.NoError(t, users.RecordFailedLogin(ctx, admin.ID, 5, &until, time.Now()))

		got, err := users.FindByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.LoginAttempts)
		assert.True(t, got.IsLocked(time.Now()))

		require.NoError(t, users.Unlock(ctx, admin.ID))
		got, err = users.FindByID(ctx, admin.ID)
		require.NoError(t, err)
		assert.Zero(t, got.LoginAttempts)
		assert.False(t, got.IsLocked(time.Now()))
	})

	customer := &models.Customer{Name: "Ecopetrol", NIT: "899999068"}
	require.NoError(t, customers.Create(ctx, customer))

	order := &models.Order{
		CustomerID:      &customer.ID,
		Cliente:         customer.Name,
		Description:     "Mantenimiento de subestación",
		Location:        "Barrancabermeja",
		State:           models.StateSolicitud,
		Priority:        models.PriorityAlta,
		EstimatedBudget: 1500000,
		StateChangedAt:  map[models.OrderState]time.Time{models.StateSolicitud: time.Now()},
		CreatedBy:       admin.ID,
	}
	require.NoError(t, orders.Create(ctx, order))

	t.Run("numero is generated per year", func(t *testing.T) {
		assert.Regexp(t, `^OT-\d{4}-\d{5}$`, order.Numero)
	})

	t.Run("list filters by customer and search", func(t *testing.T) {
		list, total, err := orders.List(ctx, models.OrderFilter{CustomerID: customer.ID, Search: "ecopetrol", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.Equal(t, order.ID, list[0].ID)
		assert.Contains(t, list[0].StateChangedAt, models.StateSolicitud)

		_, total, err = orders.List(ctx, models.OrderFilter{State: models.StatePago})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("state update is guarded by the previous state", func(t *testing.T) {
		order.State = models.StateVisita
		order.StateChangedAt[models.StateVisita] = time.Now()
		require.NoError(t, orders.UpdateState(ctx, order, models.StateSolicitud))

		stale := *order
		stale.State = models.StatePO
		assert.ErrorIs(t, orders.UpdateState(ctx, &stale, models.StateSolicitud), ErrConflict)

		got, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateVisita, got.State)
	})

	t.Run("stale update is rejected and keeps transition notes", func(t *testing.T) {
		current, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)

		current.Notes = "note appended by a transition"
		current.State = models.StatePO
		current.StateChangedAt[models.StatePO] = time.Now()
		require.NoError(t, orders.UpdateState(ctx, current, models.StateVisita))

		stale := *order
		stale.Location = "Cartagena"
		assert.ErrorIs(t, orders.Update(ctx, &stale), ErrConflict)

		fresh, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		fresh.Location = "Cartagena"
		fresh.Notes = "ignored by Update"
		require.NoError(t, orders.Update(ctx, fresh))

		got, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cartagena", got.Location)
		assert.Equal(t, "note appended by a transition", got.Notes)
	})

	t.Run("deleting a user with orders reports ErrReferenced", func(t *testing.T) {
		assert.ErrorIs(t, users.Delete(ctx, admin.ID), ErrReferenced)
		_, err := users.FindByID(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("delete then find reports not found", func(t *testing.T) {
		require.NoError(t, orders.Delete(ctx, order.ID))
		_, err := orders.FindByID(ctx, order.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, orders.Delete(ctx, order.ID), ErrNotFound)
	})
}
