package models

// Overview aggregates dashboard counters
type Overview struct {
	Projects ProjectCounts `json:"projects"`
	Tasks    TaskCounts    `json:"tasks"`
	Teams    int           `json:"teams"`
	Users    int           `json:"users"`
}

// ProjectCounts holds project totals by status
type ProjectCounts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// TaskCounts holds task totals by status
type TaskCounts struct {
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Total      int `json:"total"`
}
