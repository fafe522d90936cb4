package tools

import "github.com/kailas-cloud/campusagent/internal/domain/tool"

// SemanticSearchTool is the internal tool answered from the user's document index.
const SemanticSearchTool = "search_gmail_semantic"

// Argument shapes of the default manifest.
type (
	fetchEmailsArgs struct {
		MaxResults int    `json:"maxResults,omitempty" jsonschema:"description=Maximum number of emails to fetch (default: 10)"`
		Query      string `json:"query,omitempty" jsonschema:"description=Gmail search query (e.g. 'is:unread from:professor')"`
	}
	sendEmailArgs struct {
		To      string `json:"to" jsonschema:"required,description=Recipient email address"`
		Subject string `json:"subject" jsonschema:"required,description=Email subject"`
		Body    string `json:"body" jsonschema:"required,description=Email body content"`
	}
	addEventArgs struct {
		Summary     string `json:"summary" jsonschema:"required,description=Event title"`
		Description string `json:"description,omitempty" jsonschema:"description=Event description"`
		Start       string `json:"start" jsonschema:"required,description=Start time (ISO 8601 format)"`
		End         string `json:"end" jsonschema:"required,description=End time (ISO 8601 format)"`
		Location    string `json:"location,omitempty" jsonschema:"description=Event location"`
	}
	listEventsArgs struct {
		MaxResults int    `json:"maxResults,omitempty" jsonschema:"description=Maximum events to return"`
		TimeMin    string `json:"timeMin,omitempty" jsonschema:"description=Start time filter (ISO 8601)"`
	}
	listAssignmentsArgs struct {
		CourseID string `json:"courseId,omitempty" jsonschema:"description=Course ID (optional: lists all if not provided)"`
	}
	listCoursesArgs struct{}
	searchFilesArgs struct {
		Query      string `json:"query,omitempty" jsonschema:"description=Search query"`
		MaxResults int    `json:"maxResults,omitempty" jsonschema:"description=Max results"`
	}
	semanticSearchArgs struct {
		Query string `json:"query" jsonschema:"required,description=Natural language search query"`
		TopK  int    `json:"topK,omitempty" jsonschema:"description=Number of results to return (default: 5)"`
	}
)

// DefaultCatalog returns the assistant's tool manifest.
func DefaultCatalog() []tool.Definition {
	return []tool.Definition{
		{
			Name:             "fetch_gmail_emails",
			Description:      "Fetch emails from Gmail inbox with filters",
			Domain:           tool.DomainGmail,
			ExternalActionID: "GMAIL_FETCH_EMAILS",
			Parameters:       mustSchema[fetchEmailsArgs](),
		},
		{
			Name:             "send_gmail",
			Description:      "Send an email via Gmail",
			Domain:           tool.DomainGmail,
			ExternalActionID: "GMAIL_SEND_EMAIL",
			Parameters:       mustSchema[sendEmailArgs](),
		},
		{
			Name:             "add_calendar_event",
			Description:      "Create a new event in Google Calendar",
			Domain:           tool.DomainCalendar,
			ExternalActionID: "GOOGLECALENDAR_CREATE_EVENT",
			Parameters:       mustSchema[addEventArgs](),
		},
		{
			Name:             "list_calendar_events",
			Description:      "List upcoming events from Google Calendar",
			Domain:           tool.DomainCalendar,
			ExternalActionID: "GOOGLECALENDAR_LIST_EVENTS",
			Parameters:       mustSchema[listEventsArgs](),
		},
		{
			Name:             "list_classroom_assignments",
			Description:      "List assignments from Google Classroom courses",
			Domain:           tool.DomainClassroom,
			ExternalActionID: "GOOGLECLASSROOM_LIST_COURSEWORK",
			Parameters:       mustSchema[listAssignmentsArgs](),
		},
		{
			Name:             "list_classroom_courses",
			Description:      "List all enrolled Google Classroom courses",
			Domain:           tool.DomainClassroom,
			ExternalActionID: "GOOGLECLASSROOM_LIST_COURSES",
			Parameters:       mustSchema[listCoursesArgs](),
		},
		{
			Name:             "search_drive_files",
			Description:      "Search files in Google Drive",
			Domain:           tool.DomainDrive,
			ExternalActionID: "GOOGLEDRIVE_LIST_FILES",
			Parameters:       mustSchema[searchFilesArgs](),
		},
		{
			Name:        SemanticSearchTool,
			Description: "Semantically search emails using RAG (better than keyword search)",
			Domain:      tool.DomainInternal,
			Parameters:  mustSchema[semanticSearchArgs](),
		},
	}
}

// NewDefaultRegistry returns a registry holding DefaultCatalog.
func NewDefaultRegistry() *Registry {
	return NewRegistry().MustRegister(DefaultCatalog()...)
}
