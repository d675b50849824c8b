package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	tables := []string{
		createUsersTable,
		createHospitalsTable,
		createDoctorsTable,
		createConsultationsTable,
		createConsultationRequestsTable,
		createSOSTable,
		createSymptomChecksTable,
		createLabTestsTable,
		createDiagnosticLabsTable,
		createLabBookingsTable,
		createPatientProfilesTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, index := range createIndexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	mobile VARCHAR(10) NOT NULL UNIQUE,
	name VARCHAR(100) NOT NULL,
	language VARCHAR(2) NOT NULL DEFAULT 'ta',
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	last_login TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createHospitalsTable = `
CREATE TABLE IF NOT EXISTS hospitals (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	name VARCHAR(200) NOT NULL,
	name_ta VARCHAR(200),
	address TEXT,
	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	contact VARCHAR(20),
	specialties JSONB NOT NULL DEFAULT '[]',
	rating NUMERIC(2,1) NOT NULL DEFAULT 0,
	emergency_services BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createDoctorsTable = `
CREATE TABLE IF NOT EXISTS doctors (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	hospital_id UUID NOT NULL REFERENCES hospitals(id),
	name VARCHAR(100) NOT NULL,
	specialization VARCHAR(100) NOT NULL,
	specialization_ta VARCHAR(100),
	qualifications JSONB NOT NULL DEFAULT '[]',
	experience_years INT NOT NULL DEFAULT 0,
	languages JSONB NOT NULL DEFAULT '[]',
	availability JSONB NOT NULL DEFAULT '[]',
	consultation_fee NUMERIC(10,2) NOT NULL DEFAULT 0,
	rating NUMERIC(2,1) NOT NULL DEFAULT 0,
	total_consultations INT NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createConsultationsTable = `
CREATE TABLE IF NOT EXISTS consultations (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id UUID NOT NULL REFERENCES users(id),
	doctor_id UUID NOT NULL REFERENCES doctors(id),
	hospital_id UUID NOT NULL REFERENCES hospitals(id),
	symptom_check_id UUID,
	scheduled_at TIMESTAMPTZ NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
	type VARCHAR(20) NOT NULL DEFAULT 'video',
	meeting_id VARCHAR(64) UNIQUE,
	meeting_link TEXT,
	fee NUMERIC(10,2) NOT NULL,
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	notes TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createConsultationRequestsTable = `
CREATE TABLE IF NOT EXISTS consultation_requests (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	request_id VARCHAR(64) NOT NULL UNIQUE,
	patient_id UUID NOT NULL REFERENCES users(id),
	doctor_id UUID NOT NULL REFERENCES doctors(id),
	hospital_id UUID REFERENCES hospitals(id),
	scheduled_date TIMESTAMPTZ NOT NULL,
	time_slot VARCHAR(20) NOT NULL,
	symptoms TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	meeting_id VARCHAR(64),
	meeting_link TEXT,
	rejection_reason TEXT,
	consultation_fee NUMERIC(10,2) NOT NULL DEFAULT 0,
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSOSTable = `
CREATE TABLE IF NOT EXISTS sos_records (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id UUID NOT NULL REFERENCES users(id),
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	address VARCHAR(200),
	emergency_type VARCHAR(20) NOT NULL DEFAULT 'medical',
	description VARCHAR(500),
	language VARCHAR(2) NOT NULL DEFAULT 'ta',
	status VARCHAR(20) NOT NULL DEFAULT 'active',
	priority VARCHAR(20) NOT NULL DEFAULT 'critical',
	call_logs JSONB NOT NULL DEFAULT '[]',
	response_time TIMESTAMPTZ,
	resolved_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSymptomChecksTable = `
CREATE TABLE IF NOT EXISTS symptom_checks (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id UUID NOT NULL REFERENCES users(id),
	symptoms TEXT NOT NULL,
	advice TEXT NOT NULL,
	language VARCHAR(2) NOT NULL DEFAULT 'ta',
	fallback BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createLabTestsTable = `
CREATE TABLE IF NOT EXISTS lab_tests (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	name VARCHAR(200) NOT NULL,
	name_ta VARCHAR(200),
	category VARCHAR(100),
	price NUMERIC(10,2) NOT NULL DEFAULT 0,
	home_collection BOOLEAN NOT NULL DEFAULT FALSE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createDiagnosticLabsTable = `
CREATE TABLE IF NOT EXISTS diagnostic_labs (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	name VARCHAR(200) NOT NULL,
	address TEXT,
	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	contact VARCHAR(20),
	rating NUMERIC(2,1) NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createLabBookingsTable = `
CREATE TABLE IF NOT EXISTS lab_bookings (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	booking_id VARCHAR(64) NOT NULL UNIQUE,
	user_id UUID NOT NULL REFERENCES users(id),
	test_id UUID NOT NULL REFERENCES lab_tests(id),
	lab_id UUID NOT NULL REFERENCES diagnostic_labs(id),
	booking_date TIMESTAMPTZ NOT NULL,
	time_slot VARCHAR(20) NOT NULL,
	sample_type VARCHAR(10) NOT NULL,
	patient_details JSONB NOT NULL DEFAULT '{}',
	payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
	booking_status VARCHAR(20) NOT NULL DEFAULT 'BOOKED',
	report_url TEXT,
	amount NUMERIC(10,2) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createPatientProfilesTable = `
CREATE TABLE IF NOT EXISTS patient_profiles (
	id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
	user_id UUID NOT NULL UNIQUE REFERENCES users(id),
	qr_code VARCHAR(128) NOT NULL UNIQUE,
	medical_history JSONB NOT NULL DEFAULT '[]',
	allergies JSONB NOT NULL DEFAULT '[]',
	current_medications JSONB NOT NULL DEFAULT '[]',
	blood_group VARCHAR(5),
	emergency_contact JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_doctors_hospital ON doctors(hospital_id);`,
	`CREATE INDEX IF NOT EXISTS idx_doctors_specialization ON doctors(specialization);`,
	`CREATE INDEX IF NOT EXISTS idx_consultations_user ON consultations(user_id, scheduled_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_consultations_doctor ON consultations(doctor_id, scheduled_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_consultations_status ON consultations(status);`,
	`CREATE INDEX IF NOT EXISTS idx_requests_patient ON consultation_requests(patient_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_requests_doctor_status ON consultation_requests(doctor_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_sos_user ON sos_records(user_id, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_sos_status ON sos_records(status);`,
	`CREATE INDEX IF NOT EXISTS idx_lab_bookings_user ON lab_bookings(user_id, created_at DESC);`,
}
