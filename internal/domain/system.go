package domain

// SystemData holds the dashboard counters. Missing counters decode as zero.
type SystemData struct {
	UsersCount        int `json:"users_count"`
	ApartmentsCount   int `json:"apartments_count"`
	ReservationsCount int `json:"reservations_count"`
}
