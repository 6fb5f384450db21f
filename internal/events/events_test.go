package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

func TestEventEncoding(t *testing.T) {
	e := New(AppointmentBooked, 5)
	e.AppointmentID = 11
	e.PatientID = 7
	e.AppointmentTime = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "appointment.booked" {
		t.Errorf("type = %v", got["type"])
	}
	if got["doctorId"] != float64(5) || got["patientId"] != float64(7) {
		t.Errorf("ids = %v/%v", got["doctorId"], got["patientId"])
	}
	if e.ID == "" {
		t.Error("event id not set")
	}
}

func TestNewKafkaNeedsBrokers(t *testing.T) {
	if _, err := NewKafka(KafkaConfig{}, nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestKafkaPublish(t *testing.T) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set")
	}
	list := strings.Split(brokers, ",")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	topic := "clinic.appointments.test"
	if err := EnsureTopic(ctx, list, topic, 1, 1, nil); err != nil {
		t.Fatal(err)
	}
	k, err := NewKafka(KafkaConfig{Brokers: list, Topic: topic}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer k.Close()

	if err := k.Publish(ctx, New(DoctorDeleted, 5)); err != nil {
		t.Fatal(err)
	}
}
