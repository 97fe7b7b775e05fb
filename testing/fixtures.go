// Package testing provides test utilities and database setup for testing the ranking service
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/operator-ranking/models"
	"github.com/amirphl/operator-ranking/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// TestAdminPassword is the plain password of admins created by CreateTestAdmin
const TestAdminPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an active admin with TestAdminPassword and a random username
func (tf *TestFixtures) CreateTestAdmin() (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestAdminPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("admin_%06d", rand.Intn(1000000)),
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}
	return admin, nil
}

// CreateTestOperator creates an operator with the given code and zone
func (tf *TestFixtures) CreateTestOperator(code, name, zone string) (*models.Operator, error) {
	op := &models.Operator{
		Code:       code,
		Name:       name,
		NationalID: fmt.Sprintf("%08d", rand.Intn(90000000)+10000000),
		Position:   "Operador",
		Zone:       zone,
	}
	if err := tf.DB.DB.Create(op).Error; err != nil {
		return nil, fmt.Errorf("failed to create test operator %s: %w", code, err)
	}
	return op, nil
}

// CreateTestControlVariable creates one control variable row over [start, end]
func (tf *TestFixtures) CreateTestControlVariable(code, variable string, programmed, executed int64, start, end time.Time) (*models.ControlVariable, error) {
	row := &models.ControlVariable{
		OperatorCode:    code,
		VariableCode:    variable,
		ProgrammedValue: decimal.NewFromInt(programmed),
		ExecutedValue:   decimal.NewFromInt(executed),
		WindowStart:     start,
		WindowEnd:       end,
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test control variable: %w", err)
	}
	return row, nil
}

// CreateTestIncident creates an incident lasting days calendar days
func (tf *TestFixtures) CreateTestIncident(code, factor string, start time.Time, days int) (*models.Incident, error) {
	end := start.AddDate(0, 0, days-1)
	row := &models.Incident{
		OperatorCode: code,
		FactorCode:   factor,
		WindowStart:  start,
		WindowEnd:    &end,
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to create test incident: %w", err)
	}
	return row, nil
}
