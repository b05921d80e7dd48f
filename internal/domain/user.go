package domain

import (
	"strconv"
	"time"
)

// LegacyJoinNumberField is the deprecated predecessor of goodsID.
const LegacyJoinNumberField = "joinNumber"

// UserProfile is one record per platform identity.
type UserProfile struct {
	FID                  int64      `json:"fid"`
	Username             string     `json:"username,omitempty"`
	DisplayName          string     `json:"displayName,omitempty"`
	PfpURL               string     `json:"pfpUrl,omitempty"`
	GoodsID              *int64     `json:"goodsID,omitempty"`
	CurrentPoints        int64      `json:"currentPoints"`
	LastPointsDate       string     `json:"lastPointsDate,omitempty"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`
	CreatedAt            *time.Time `json:"createdAt,omitempty"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// HasGoodsID reports whether a sequence number has been assigned.
func (p *UserProfile) HasGoodsID() bool {
	return p != nil && p.GoodsID != nil
}

// ProfileUpdate carries the caller-supplied fields of a profile save.
// Nil pointers are left untouched by the merge.
type ProfileUpdate struct {
	FID                  int64   `json:"fid" validate:"required,gt=0"`
	Username             *string `json:"username,omitempty" validate:"omitempty,max=64"`
	DisplayName          *string `json:"displayName,omitempty" validate:"omitempty,max=128"`
	PfpURL               *string `json:"pfpUrl,omitempty" validate:"omitempty,url"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
}

// FIDString renders a platform identity as a document id.
func FIDString(fid int64) string {
	return strconv.FormatInt(fid, 10)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
