package model

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewFollowRejectsSelfFollow(t *testing.T) {
	id := uuid.New()
	if _, err := NewFollow(id, id); !errors.Is(err, ErrSelfFollow) {
		t.Errorf("NewFollow(self, self) error = %v, want ErrSelfFollow", err)
	}
}

func TestNewFollow(t *testing.T) {
	follower, followee := uuid.New(), uuid.New()
	follow, err := NewFollow(follower, followee)
	if err != nil {
		t.Fatalf("NewFollow returned error: %v", err)
	}
	if follow.FollowerID != follower || follow.FolloweeID != followee {
		t.Errorf("follow = %+v, want follower=%s followee=%s", follow, follower, followee)
	}
}

func TestParseUserID(t *testing.T) {
	valid := uuid.New()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", valid.String(), nil},
		{"valid with whitespace", "  " + valid.String() + " ", nil},
		{"empty", "", ErrUserIDEmpty},
		{"blank", "   ", ErrUserIDEmpty},
		{"garbage", "not-a-uuid", ErrUserIDInvalidFormat},
		{"truncated", valid.String()[:10], ErrUserIDInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUserID(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseUserID(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUserID(%q) returned error: %v", tt.input, err)
			}
			if got != valid {
				t.Errorf("ParseUserID(%q) = %s, want %s", tt.input, got, valid)
			}
		})
	}
}
