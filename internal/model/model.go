package model

import (
	"errors"
	"time"
)

// Storage errors shared by every repository implementation.
var (
	ErrNotFound          = errors.New("not found")
	ErrSlotConflict      = errors.New("appointment overlaps an existing booking")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicatePhone    = errors.New("phone already registered")
	ErrDuplicateUsername = errors.New("username already registered")
)

type Admin struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Doctor struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Specialty    string    `json:"specialty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Patient struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusScheduled || s == StatusCompleted
}

// AppointmentLength is the fixed duration of every appointment.
const AppointmentLength = time.Hour

// Appointment occupies exactly one slot starting at AppointmentTime.
type Appointment struct {
	ID              int64     `json:"id"`
	DoctorID        int64     `json:"doctorId"`
	PatientID       int64     `json:"patientId"`
	AppointmentTime time.Time `json:"appointmentTime"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AppointmentView is the read-only projection returned by listings.
type AppointmentView struct {
	ID              int64     `json:"id"`
	DoctorID        int64     `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	PatientID       int64     `json:"patientId"`
	PatientName     string    `json:"patientName"`
	PatientEmail    string    `json:"patientEmail"`
	PatientPhone    string    `json:"patientPhone"`
	PatientAddress  string    `json:"patientAddress"`
	AppointmentTime time.Time `json:"appointmentTime"`
	EndTime         time.Time `json:"endTime"`
	Status          Status    `json:"status"`
}

// AppointmentFilter selects appointments. Zero fields are ignored; From and To are inclusive.
type AppointmentFilter struct {
	DoctorID    int64
	PatientID   int64
	From        time.Time
	To          time.Time
	PatientName string
	DoctorName  string
	Status      Status
}

type Period string

const (
	PeriodAM Period = "AM"
	PeriodPM Period = "PM"
)

// DoctorFilter selects doctors. Name matches as a case-insensitive substring,
// Specialty case-insensitively in full.
type DoctorFilter struct {
	Name      string
	Specialty string
	Period    Period
}

type Prescription struct {
	ID            string    `json:"id"`
	AppointmentID int64     `json:"appointmentId"`
	DoctorID      int64     `json:"doctorId"`
	PatientName   string    `json:"patientName"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
