package model

import (
	"time"

	"github.com/google/uuid"
)

// ServiceCenter is a physical registration office with its own operating
// window, daily capacity and same-day queue. Opening and closing times are
// wall-clock values local to the center, stored as "HH:MM".
type ServiceCenter struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Code               string    `db:"code" json:"code"`
	Address            string    `db:"address" json:"address"`
	City               string    `db:"city" json:"city"`
	Province           string    `db:"province" json:"province"`
	Phone              string    `db:"phone" json:"phone,omitempty"`
	Email              string    `db:"email" json:"email,omitempty"`
	OpeningTime        string    `db:"opening_time" json:"opening_time"`
	ClosingTime        string    `db:"closing_time" json:"closing_time"`
	MaxDailyCapacity   int       `db:"max_daily_capacity" json:"max_daily_capacity"`
	AverageServiceTime int       `db:"average_service_time" json:"average_service_time"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	IsOperational      bool      `db:"is_operational" json:"is_operational"`
	Latitude           *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude          *float64  `db:"longitude" json:"longitude,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type CreateCenterRequest struct {
	Name               string   `json:"name" binding:"required,max=200"`
	Code               string   `json:"code" binding:"required,max=10"`
	Address            string   `json:"address" binding:"required"`
	City               string   `json:"city" binding:"required,max=100"`
	Province           string   `json:"province" binding:"required,max=100"`
	Phone              string   `json:"phone" binding:"max=20"`
	Email              string   `json:"email" binding:"omitempty,email"`
	OpeningTime        string   `json:"opening_time" binding:"required,timehhmm"`
	ClosingTime        string   `json:"closing_time" binding:"required,timehhmm"`
	MaxDailyCapacity   int      `json:"max_daily_capacity" binding:"required,gte=0"`
	AverageServiceTime int      `json:"average_service_time" binding:"required,gt=0"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
}

type UpdateCenterRequest struct {
	Name               *string  `json:"name" binding:"omitempty,max=200"`
	Code               *string  `json:"code" binding:"omitempty,max=10"`
	Address            *string  `json:"address"`
	City               *string  `json:"city" binding:"omitempty,max=100"`
	Province           *string  `json:"province" binding:"omitempty,max=100"`
	Phone              *string  `json:"phone" binding:"omitempty,max=20"`
	Email              *string  `json:"email" binding:"omitempty,email"`
	OpeningTime        *string  `json:"opening_time" binding:"omitempty,timehhmm"`
	ClosingTime        *string  `json:"closing_time" binding:"omitempty,timehhmm"`
	MaxDailyCapacity   *int     `json:"max_daily_capacity" binding:"omitempty,gte=0"`
	AverageServiceTime *int     `json:"average_service_time" binding:"omitempty,gt=0"`
	IsActive           *bool    `json:"is_active"`
	IsOperational      *bool    `json:"is_operational"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
}

type CenterFilters struct {
	City            string
	OperationalOnly bool
	IncludeInactive bool
}
