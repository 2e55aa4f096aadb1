package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"projecthub/internal/delivery/http/controllers"
)

// NewRouter initializes the HTTP router with all application routes.
// Every route except sign-in and swagger requires a bearer token.
func NewRouter(
	auth func(http.HandlerFunc) http.HandlerFunc,
	authController *controllers.AuthController,
	projectController *controllers.ProjectController,
	taskController *controllers.TaskController,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth and calendar connection
	mux.HandleFunc("POST /auth/google", authController.GoogleSignIn)
	mux.HandleFunc("GET /auth/calendar/url", auth(authController.CalendarAuthURL))
	mux.HandleFunc("POST /auth/calendar/connect", auth(authController.ConnectCalendar))
	mux.HandleFunc("DELETE /auth/calendar", auth(authController.DisconnectCalendar))
	mux.HandleFunc("GET /auth/calendar/status", auth(authController.CalendarStatus))

	// Projects
	mux.HandleFunc("POST /projects", auth(projectController.CreateProject))
	mux.HandleFunc("GET /projects", auth(projectController.ListProjects))
	mux.HandleFunc("POST /projects/join", auth(projectController.JoinProject))
	mux.HandleFunc("GET /projects/{projectID}", auth(projectController.GetProject))
	mux.HandleFunc("PATCH /projects/{projectID}", auth(projectController.UpdateProject))
	mux.HandleFunc("DELETE /projects/{projectID}", auth(projectController.DeleteProject))
	mux.HandleFunc("POST /projects/{projectID}/resources", auth(projectController.AddResource))
	mux.HandleFunc("DELETE /projects/{projectID}/resources/{resourceID}", auth(projectController.RemoveResource))
	mux.HandleFunc("DELETE /projects/{projectID}/members/{memberID}", auth(projectController.RemoveMember))

	// Invitations
	mux.HandleFunc("POST /projects/{projectID}/invitations", auth(projectController.CreateInvitation))
	mux.HandleFunc("GET /projects/{projectID}/invitations", auth(projectController.ListInvitations))
	mux.HandleFunc("POST /invitations/{code}/accept", auth(projectController.AcceptInvitation))
	mux.HandleFunc("POST /invitations/{code}/decline", auth(projectController.DeclineInvitation))

	// Tasks
	mux.HandleFunc("POST /projects/{projectID}/tasks", auth(taskController.CreateTask))
	mux.HandleFunc("GET /projects/{projectID}/tasks", auth(taskController.ListProjectTasks))
	mux.HandleFunc("GET /tasks", auth(taskController.QueryTasks))
	mux.HandleFunc("GET /tasks/{taskID}", auth(taskController.GetTask))
	mux.HandleFunc("PATCH /tasks/{taskID}", auth(taskController.UpdateTask))
	mux.HandleFunc("DELETE /tasks/{taskID}", auth(taskController.DeleteTask))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
