package entity

import "time"

// AdminDevice is an admin app installation that receives push notifications.
type AdminDevice struct {
	UID       string    `json:"uid" firestore:"uid"`
	FCMToken  string    `json:"fcm_token" firestore:"fcmToken"`
	Platform  string    `json:"platform,omitempty" firestore:"platform,omitempty"`
	LastSeen  time.Time `json:"last_seen" firestore:"lastSeen"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
