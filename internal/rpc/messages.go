package rpc

// Times travel as RFC 3339 strings. Requests may also send clinic-local
// "2006-01-02T15:04" values.

type LoginRequest struct {
	Role string `json:"role"`
	// Identifier is the username for admins and the email for everyone else.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID int64  `json:"userId"`
}

type GetAvailabilityRequest struct {
	DoctorID int64  `json:"doctorId"`
	Date     string `json:"date"`
	Role     string `json:"role,omitempty"`
}

type GetAvailabilityResponse struct {
	DoctorID int64    `json:"doctorId"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

type Appointment struct {
	ID              int64  `json:"id"`
	DoctorID        int64  `json:"doctorId"`
	PatientID       int64  `json:"patientId"`
	AppointmentTime string `json:"appointmentTime"`
	EndTime         string `json:"endTime"`
	Status          string `json:"status"`
}

type BookAppointmentRequest struct {
	DoctorID        int64  `json:"doctorId"`
	PatientID       int64  `json:"patientId,omitempty"`
	AppointmentTime string `json:"appointmentTime"`
}

type UpdateAppointmentRequest struct {
	ID              int64  `json:"id"`
	DoctorID        int64  `json:"doctorId,omitempty"`
	AppointmentTime string `json:"appointmentTime,omitempty"`
	Status          string `json:"status,omitempty"`
}

type AppointmentResponse struct {
	Appointment *Appointment `json:"appointment"`
}

type CancelAppointmentRequest struct {
	ID int64 `json:"id"`
}

type CancelAppointmentResponse struct{}

type ListDoctorAppointmentsRequest struct {
	Date        string `json:"date"`
	PatientName string `json:"patientName,omitempty"`
}

type AppointmentView struct {
	ID              int64  `json:"id"`
	DoctorID        int64  `json:"doctorId"`
	DoctorName      string `json:"doctorName"`
	PatientID       int64  `json:"patientId"`
	PatientName     string `json:"patientName"`
	PatientEmail    string `json:"patientEmail"`
	PatientPhone    string `json:"patientPhone"`
	PatientAddress  string `json:"patientAddress"`
	AppointmentTime string `json:"appointmentTime"`
	EndTime         string `json:"endTime"`
	Status          string `json:"status"`
}

type ListDoctorAppointmentsResponse struct {
	Appointments []*AppointmentView `json:"appointments"`
}
