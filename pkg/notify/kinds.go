package notify

import (
	"sort"

	"github.com/communityforge/notify/pkg/config"
)

// Kind is the enumerated notification type. It determines the required payload
// fields, the transport scheme, and the content templates.
type Kind string

const (
	KindApplicationApproved      Kind = "application_approved"
	KindApplicationRejected      Kind = "application_rejected"
	KindEventPublished           Kind = "event_published"
	KindEventRejected            Kind = "event_rejected"
	KindEventGroupJoinRequest    Kind = "event_group_join_request"
	KindEventGroupMemberApproved Kind = "event_group_member_approved"
	KindProjectApplication       Kind = "project_application"
	KindProjectApproved          Kind = "project_approved"
	KindProjectRejected          Kind = "project_rejected"
	KindProjectReviewApproved    Kind = "project_review_approved"
	KindProjectReviewRejected    Kind = "project_review_rejected"
	KindProjectSubmittedAdmin    Kind = "project_submitted_admin"
	KindEventGroupSubmittedAdmin Kind = "event_group_submission_admin"
)

// Documented fallback strings for optional payload fields. These are part of
// the rendering contract: an absent optional field always renders as its
// fallback, never as an empty string or a null literal.
const (
	FallbackNotSpecified   = "Not specified"
	FallbackTeamMember     = "Team Member"
	FallbackProjectOwner   = "Project Owner"
	FallbackProjectTitle   = "Project"
	FallbackEventOrganizer = "Event Organizer"
	FallbackEventGroup     = "Event Group"
	FallbackReviewer       = "Reviewer"
)

// Field binds a template variable to a payload path. Required fields are
// validated before any transport is opened; optional fields fall back to a
// fixed string when absent.
type Field struct {
	Name     string // template variable name
	Path     string // dotted payload path
	Required bool
	Fallback string
}

// Definition declares everything that varies between notification kinds. The
// dispatch pipeline itself is identical for every kind.
type Definition struct {
	// Scheme selects the credential family for this kind's transport.
	Scheme config.Scheme
	// Fields are the payload bindings available to the templates.
	Fields []Field
	// RecipientPath is the payload path of the primary recipient address.
	RecipientPath string
	// RecipientType is the recipient role reported in dispatch results.
	RecipientType string
	// AdminFallback kinds default the recipient to the configured admin email
	// when the payload carries no address at RecipientPath.
	AdminFallback bool
	// Subject is the subject template; it sees the same data as the bodies.
	Subject string
	// Template is the base name of templates/<Template>.txt and .html.
	Template string
	// Message is the human-readable success message returned to the caller.
	Message string
}

var registry = map[Kind]Definition{
	KindApplicationApproved: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ApplicantEmail", Path: "applicationData.applicantEmail", Required: true},
			{Name: "ApplicantName", Path: "applicationData.applicantName", Fallback: FallbackTeamMember},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
		},
		RecipientPath: "applicationData.applicantEmail",
		RecipientType: "applicant",
		Subject:       "Your application to join {{.ProjectTitle}} was approved",
		Template:      "application_approved",
		Message:       "Application approval email sent",
	},
	KindApplicationRejected: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ApplicantEmail", Path: "applicationData.applicantEmail", Required: true},
			{Name: "ApplicantName", Path: "applicationData.applicantName", Fallback: FallbackTeamMember},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "Reason", Path: "applicationData.rejectionReason", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "applicationData.applicantEmail",
		RecipientType: "applicant",
		Subject:       "Update on your application to {{.ProjectTitle}}",
		Template:      "application_rejected",
		Message:       "Application rejection email sent",
	},
	KindEventPublished: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "OrganizerEmail", Path: "eventData.organizerEmail", Required: true},
			{Name: "EventTitle", Path: "eventData.title", Required: true},
			{Name: "OrganizerName", Path: "eventData.organizerName", Fallback: FallbackEventOrganizer},
			{Name: "EventDate", Path: "eventData.dateDisplay", Fallback: FallbackNotSpecified},
			{Name: "EventDuration", Path: "eventData.durationDisplay", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "eventData.organizerEmail",
		RecipientType: "organizer",
		Subject:       "Your event {{.EventTitle}} is now live",
		Template:      "event_published",
		Message:       "Event published email sent",
	},
	KindEventRejected: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "OrganizerEmail", Path: "eventData.organizerEmail", Required: true},
			{Name: "EventTitle", Path: "eventData.title", Required: true},
			{Name: "OrganizerName", Path: "eventData.organizerName", Fallback: FallbackEventOrganizer},
			{Name: "Reason", Path: "eventData.rejectionReason", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "eventData.organizerEmail",
		RecipientType: "organizer",
		Subject:       "Update on your event {{.EventTitle}}",
		Template:      "event_rejected",
		Message:       "Event rejection email sent",
	},
	KindEventGroupJoinRequest: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "AdminEmail", Path: "adminData.email", Required: true},
			{Name: "GroupName", Path: "eventGroupData.name", Fallback: FallbackEventGroup},
			{Name: "RequesterName", Path: "requesterData.name", Fallback: FallbackTeamMember},
			{Name: "RequesterEmail", Path: "requesterData.email", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "adminData.email",
		RecipientType: "group-admin",
		Subject:       "New join request for {{.GroupName}}",
		Template:      "event_group_join_request",
		Message:       "Join request email sent",
	},
	KindEventGroupMemberApproved: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "MemberEmail", Path: "memberData.email", Required: true},
			{Name: "MemberName", Path: "memberData.name", Fallback: FallbackTeamMember},
			{Name: "GroupName", Path: "eventGroupData.name", Fallback: FallbackEventGroup},
		},
		RecipientPath: "memberData.email",
		RecipientType: "member",
		Subject:       "You've been added to {{.GroupName}}",
		Template:      "event_group_member_approved",
		Message:       "Member approval email sent",
	},
	KindProjectApplication: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ContactEmail", Path: "projectData.contactEmail", Required: true},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "ApplicantName", Path: "applicationData.applicantName", Fallback: FallbackTeamMember},
			{Name: "ApplicantEmail", Path: "applicationData.applicantEmail", Fallback: FallbackNotSpecified},
			{Name: "ApplicantMessage", Path: "applicationData.message", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "projectData.contactEmail",
		RecipientType: "owner",
		Subject:       "New application for {{.ProjectTitle}}",
		Template:      "project_application",
		Message:       "Project application email sent",
	},
	KindProjectApproved: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ContactEmail", Path: "projectData.contactEmail", Required: true},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "Timeline", Path: "projectData.timeline", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "projectData.contactEmail",
		RecipientType: "owner",
		Subject:       "Your project {{.ProjectTitle}} was approved",
		Template:      "project_approved",
		Message:       "Project approval email sent",
	},
	KindProjectRejected: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ContactEmail", Path: "projectData.contactEmail", Required: true},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "Reason", Path: "projectData.rejectionReason", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "projectData.contactEmail",
		RecipientType: "owner",
		Subject:       "Update on your project {{.ProjectTitle}}",
		Template:      "project_rejected",
		Message:       "Project rejection email sent",
	},
	KindProjectReviewApproved: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ContactEmail", Path: "projectData.contactEmail", Required: true},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "ReviewerName", Path: "reviewData.reviewerName", Fallback: FallbackReviewer},
		},
		RecipientPath: "projectData.contactEmail",
		RecipientType: "owner",
		Subject:       "Your review of {{.ProjectTitle}} was approved",
		Template:      "project_review_approved",
		Message:       "Review approval email sent",
	},
	KindProjectReviewRejected: {
		Scheme: config.SchemeHostedMailbox,
		Fields: []Field{
			{Name: "ContactEmail", Path: "projectData.contactEmail", Required: true},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
			{Name: "ProjectTitle", Path: "projectData.title", Fallback: FallbackProjectTitle},
			{Name: "Reason", Path: "reviewData.rejectionReason", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "projectData.contactEmail",
		RecipientType: "owner",
		Subject:       "Update on your review of {{.ProjectTitle}}",
		Template:      "project_review_rejected",
		Message:       "Review rejection email sent",
	},
	KindProjectSubmittedAdmin: {
		Scheme: config.SchemeGenericSMTP,
		Fields: []Field{
			{Name: "ProjectTitle", Path: "projectData.title", Required: true},
			{Name: "OwnerName", Path: "projectData.ownerName", Fallback: FallbackProjectOwner},
			{Name: "ContactEmail", Path: "projectData.contactEmail", Fallback: FallbackNotSpecified},
			{Name: "Timeline", Path: "projectData.timeline", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "adminData.email",
		RecipientType: "admin",
		AdminFallback: true,
		Subject:       "[{{.BrandingName}}] New project submitted: {{.ProjectTitle}}",
		Template:      "project_submitted_admin",
		Message:       "Admin notification email sent",
	},
	KindEventGroupSubmittedAdmin: {
		Scheme: config.SchemeGenericSMTP,
		Fields: []Field{
			{Name: "GroupName", Path: "eventGroupData.name", Required: true},
			{Name: "OrganizerName", Path: "eventGroupData.organizerName", Fallback: FallbackEventOrganizer},
			{Name: "OrganizerEmail", Path: "eventGroupData.organizerEmail", Fallback: FallbackNotSpecified},
		},
		RecipientPath: "adminData.email",
		RecipientType: "admin",
		AdminFallback: true,
		Subject:       "[{{.BrandingName}}] New event group submitted: {{.GroupName}}",
		Template:      "event_group_submission_admin",
		Message:       "Admin notification email sent",
	},
}

// Lookup returns the definition for a kind, reporting whether it is registered.
func Lookup(kind Kind) (Definition, bool) {
	def, ok := registry[kind]
	return def, ok
}

// Kinds returns every registered notification kind in stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for kind := range registry {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// requiredPaths returns the dotted payload paths that must be present and
// non-empty for this kind.
func (d Definition) requiredPaths() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Path)
		}
	}
	return out
}
