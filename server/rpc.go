package server

import "github.com/amonks/taskplanner/task"

type tasksListResponse struct {
	Tasks []task.Task `json:"tasks"`
}

type tasksCreateRequest struct {
	Name string `json:"name"`
}

type taskResponse struct {
	Task task.Task `json:"task"`
}

type tasksCompleteRequest struct {
	ID        string `json:"id"`
	Completed *bool  `json:"completed"`
}

type tasksDeleteRequest struct {
	ID string `json:"id"`
}

type emptyResponse struct{}
