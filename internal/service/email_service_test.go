package service

import (
	"errors"
	"testing"
	"time"

	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/models"
)

func TestMaskPin(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ABCD123456", "AB******56"},
		{"ABCDE", "AB*DE"},
		{"ABCD", "ABCD"},
		{"AB", "AB"},
		{"  ABCD123456  ", "AB******56"},
	}
	for _, tc := range cases {
		if got := maskPin(tc.in); got != tc.want {
			t.Fatalf("maskPin(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSendCardDepletedNoticeDisabled(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	err := svc.SendCardDepletedNotice("office@example.com", CardDepletedNoticeInput{
		SchoolName: "Test School",
		Pin:        "ABCD123456",
	})
	if !errors.Is(err, ErrEmailDisabled) {
		t.Fatalf("expected ErrEmailDisabled, got %v", err)
	}
}

func TestSendCardDepletedNoticeBadConfig(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: true})
	err := svc.SendCardDepletedNotice("office@example.com", CardDepletedNoticeInput{Pin: "ABCD123456"})
	if !errors.Is(err, ErrEmailSendFailed) {
		t.Fatalf("expected ErrEmailSendFailed without host config, got %v", err)
	}

	svc = NewEmailService(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@example.com",
	})
	err = svc.SendCardDepletedNotice("not an address", CardDepletedNoticeInput{Pin: "ABCD123456"})
	if !errors.Is(err, ErrEmailSendFailed) {
		t.Fatalf("expected ErrEmailSendFailed for bad recipient, got %v", err)
	}
}

func TestCardDepletedNotice(t *testing.T) {
	lastUsed := time.Now()
	card := &models.ScratchCard{
		Pin:        "ABCD123456",
		UsageCount: 3,
		LastUsedAt: &lastUsed,
		Batch:      &models.ScratchCardBatch{BatchNo: "SCB20260101ABCD"},
	}
	school := &models.School{Name: "Greenfield", NotificationEmail: "office@greenfield.example"}

	to, input, ok := CardDepletedNotice(card, school)
	if !ok {
		t.Fatal("notice should be produced")
	}
	if to != "office@greenfield.example" {
		t.Fatalf("unexpected recipient: %s", to)
	}
	if input.SchoolName != "Greenfield" || input.Pin != "ABCD123456" || input.BatchNo != "SCB20260101ABCD" {
		t.Fatalf("unexpected notice input: %+v", input)
	}
	if input.UsageCount != 3 || input.LastUsedAt == nil {
		t.Fatalf("usage fields missing: %+v", input)
	}

	school.NotificationEmail = ""
	if _, _, ok := CardDepletedNotice(card, school); ok {
		t.Fatal("schools without a contact address get no notice")
	}
	if _, _, ok := CardDepletedNotice(nil, nil); ok {
		t.Fatal("nil inputs must not produce a notice")
	}
}
