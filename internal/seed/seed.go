// Package seed loads YAML fixtures into a tracker instance through the
// service layer, so fixtures obey the same invariants as API requests.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/auth"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/service"
	"gopkg.in/yaml.v3"
)

type User struct {
	Email    string      `yaml:"email"`
	Name     string      `yaml:"name"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

type Workflow struct {
	Name     string   `yaml:"name"`
	Statuses []string `yaml:"statuses"`
}

type Ticket struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Priority    string `yaml:"priority"`
	// Reporter and Assignee are user emails from the same organization.
	Reporter string `yaml:"reporter"`
	Assignee string `yaml:"assignee"`
}

type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Workflow names a workflow of the organization. Empty uses the default.
	Workflow string   `yaml:"workflow"`
	Tickets  []Ticket `yaml:"tickets"`
}

type Organization struct {
	Name      string     `yaml:"name"`
	Users     []User     `yaml:"users"`
	Workflows []Workflow `yaml:"workflows"`
	Projects  []Project  `yaml:"projects"`
}

// Fixtures is the root of a seed file.
type Fixtures struct {
	SuperAdmins   []User         `yaml:"super_admins"`
	Organizations []Organization `yaml:"organizations"`
}

// Load reads and parses a seed file. Unknown keys are rejected.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML fixtures.
func Parse(data []byte) (*Fixtures, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var fixtures Fixtures
	if err := dec.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &fixtures, nil
}

// Result summarizes what Apply created.
type Result struct {
	Organizations int
	Users         int
	Workflows     int
	Projects      int
	Tickets       int
}

// Apply creates the fixtures. Organizations and users that already exist
// (matched by name and email) are skipped so a seed file can be applied on
// every start.
func Apply(ctx context.Context, svc *service.Service, fixtures *Fixtures) (*Result, error) {
	system := auth.WithActor(ctx, auth.SystemActor())
	result := &Result{}

	for _, u := range fixtures.SuperAdmins {
		u.Role = models.RoleSuperAdmin
		created, err := createUser(system, svc, nil, u)
		if err != nil {
			return result, err
		}
		if created != nil {
			result.Users++
		}
	}

	existing, err := svc.ListOrganizations(system)
	if err != nil {
		return result, fmt.Errorf("failed to list organizations: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, org := range existing {
		names[org.Name] = true
	}

	for _, o := range fixtures.Organizations {
		if names[o.Name] {
			log.Info().Str("name", o.Name).Msg("Organization exists, skipping seed")
			continue
		}
		if err := applyOrganization(system, svc, o, result); err != nil {
			return result, fmt.Errorf("organization %q: %w", o.Name, err)
		}
	}

	log.Info().
		Int("organizations", result.Organizations).
		Int("users", result.Users).
		Int("workflows", result.Workflows).
		Int("projects", result.Projects).
		Int("tickets", result.Tickets).
		Msg("Seed applied")

	return result, nil
}

func createUser(ctx context.Context, svc *service.Service, orgID *uuid.UUID, u User) (*models.User, error) {
	user, err := svc.CreateUser(ctx, service.CreateUserInput{
		OrgID:    orgID,
		Email:    u.Email,
		Name:     u.Name,
		Password: u.Password,
		Role:     u.Role,
	})
	if errors.Is(err, apperr.IntegrityConflict) {
		log.Info().Str("email", u.Email).Msg("User exists, skipping seed")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", u.Email, err)
	}
	return user, nil
}

func applyOrganization(system context.Context, svc *service.Service, o Organization, result *Result) error {
	org, err := svc.CreateOrganization(system, service.CreateOrganizationInput{Name: o.Name})
	if err != nil {
		return err
	}
	result.Organizations++

	users := map[string]*models.User{}
	for _, u := range o.Users {
		user, err := createUser(system, svc, &org.OrgID, u)
		if err != nil {
			return err
		}
		if user != nil {
			users[strings.ToLower(user.Email)] = user
			result.Users++
		}
	}

	workflows := map[string]uuid.UUID{}
	for _, w := range o.Workflows {
		wf, err := svc.CreateWorkflow(system, service.CreateWorkflowInput{OrgID: &org.OrgID, Name: w.Name, Statuses: w.Statuses})
		if err != nil {
			return fmt.Errorf("workflow %q: %w", w.Name, err)
		}
		workflows[w.Name] = wf.WorkflowID
		result.Workflows++
	}

	for _, p := range o.Projects {
		in := service.CreateProjectInput{OrgID: &org.OrgID, Name: p.Name, Description: p.Description}
		if p.Workflow != "" {
			id, ok := workflows[p.Workflow]
			if !ok {
				return fmt.Errorf("project %q: unknown workflow %q", p.Name, p.Workflow)
			}
			in.WorkflowID = &id
		}

		project, err := svc.CreateProject(system, in)
		if err != nil {
			return fmt.Errorf("project %q: %w", p.Name, err)
		}
		result.Projects++

		for _, t := range p.Tickets {
			if err := createTicket(system, svc, project.ProjectID, users, t); err != nil {
				return fmt.Errorf("project %q ticket %q: %w", p.Name, t.Title, err)
			}
			result.Tickets++
		}
	}

	return nil
}

func lookupUser(users map[string]*models.User, email string) (*models.User, error) {
	user, ok := users[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("unknown user %q", email)
	}
	return user, nil
}

func createTicket(system context.Context, svc *service.Service, projectID uuid.UUID, users map[string]*models.User, t Ticket) error {
	ctx := system
	if t.Reporter != "" {
		reporter, err := lookupUser(users, t.Reporter)
		if err != nil {
			return err
		}
		actor, err := svc.ResolveActor(system, reporter.UserID)
		if err != nil {
			return err
		}
		ctx = auth.WithActor(system, actor)
	}

	in := service.CreateTicketInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
	}
	if t.Assignee != "" {
		assignee, err := lookupUser(users, t.Assignee)
		if err != nil {
			return err
		}
		in.AssigneeID = &assignee.UserID
	}

	_, err := svc.CreateTicket(ctx, projectID, in)
	return err
}
