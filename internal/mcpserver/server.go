// Package mcpserver exposes the people and network operations as Model
// Context Protocol tools so assistants can read and extend the graph.
package mcpserver

import (
	"context"
	"fmt"

	"peoplenet/pkg/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Service is the subset of *core.Service the tools call.
type Service interface {
	ListPeople(ctx context.Context) ([]domain.Person, error)
	GetPerson(ctx context.Context, id int64) (domain.Person, error)
	CreatePerson(ctx context.Context, in domain.PersonInput) (domain.Person, error)
	CreateRelationship(ctx context.Context, in domain.RelationshipInput) (domain.Relationship, error)
	Network(ctx context.Context, id int64) (domain.Network, error)
}

// Server wraps the MCP server with the peoplenet tools.
type Server struct {
	svc    Service
	server *mcp.Server
}

// New registers every tool against svc.
func New(svc Service, version string) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "peoplenet",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server, for in-process transports.
func (s *Server) MCP() *mcp.Server { return s.server }

// Run serves the tools over stdio until ctx is done or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// PersonIDArgs names one person.
type PersonIDArgs struct {
	ID int64 `json:"id" jsonschema:"person id"`
}

// PeopleResult is the list_people result.
type PeopleResult struct {
	People []domain.Person `json:"people" jsonschema:"all people ordered by id"`
}

// PersonResult carries a single person.
type PersonResult struct {
	Person domain.Person `json:"person"`
}

// NetworkResult is the get_network projection.
type NetworkResult struct {
	Nodes []domain.Node `json:"nodes" jsonschema:"center person first, then distinct neighbours"`
	Edges []domain.Edge `json:"edges" jsonschema:"one directed edge per relationship touching the center"`
}

// CreatePersonArgs are the create_person fields; unset pointers stay unset.
type CreatePersonArgs struct {
	Name     string  `json:"name" jsonschema:"display name, required"`
	GroupTag *string `json:"group_tag,omitempty" jsonschema:"family, friend, colleague, other or free text; defaults to friend"`
	Email    *string `json:"email,omitempty" jsonschema:"email address"`
	Phone    *string `json:"phone,omitempty"`
	DOB      *string `json:"dob,omitempty" jsonschema:"date of birth"`
	Notes    *string `json:"notes,omitempty"`
}

func (a CreatePersonArgs) input() domain.PersonInput {
	in := domain.PersonInput{Name: domain.Some(a.Name)}
	set := func(dst *domain.Optional[string], v *string) {
		if v != nil {
			*dst = domain.Some(*v)
		}
	}
	set(&in.GroupTag, a.GroupTag)
	set(&in.Email, a.Email)
	set(&in.Phone, a.Phone)
	set(&in.DOB, a.DOB)
	set(&in.Notes, a.Notes)
	return in
}

// CreateRelationshipArgs are the create_relationship fields.
type CreateRelationshipArgs struct {
	PersonID         int64  `json:"person_id" jsonschema:"source person id"`
	RelatedPersonID  int64  `json:"related_person_id" jsonschema:"target person id"`
	RelationshipType string `json:"relationship_type" jsonschema:"label such as Brother or Friend"`
}

// RelationshipResult carries the created relationship.
type RelationshipResult struct {
	Relationship domain.Relationship `json:"relationship"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_people",
		Description: "List every person in the network with their contact details and group.",
	}, s.handleListPeople)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_person",
		Description: "Fetch one person by id.",
	}, s.handleGetPerson)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_network",
		Description: "Return the network around a person: the person, their direct neighbours, and every relationship touching them with its direction and label.",
	}, s.handleGetNetwork)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_person",
		Description: "Add a person. Name is required; email must be valid when given.",
	}, s.handleCreatePerson)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_relationship",
		Description: "Add a directed, labeled relationship between two existing people.",
	}, s.handleCreateRelationship)
}

func (s *Server) handleListPeople(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, PeopleResult, error) {
	people, err := s.svc.ListPeople(ctx)
	if err != nil {
		return nil, PeopleResult{}, fmt.Errorf("list people: %w", err)
	}
	return nil, PeopleResult{People: people}, nil
}

func (s *Server) handleGetPerson(ctx context.Context, _ *mcp.CallToolRequest, args PersonIDArgs) (*mcp.CallToolResult, PersonResult, error) {
	p, err := s.svc.GetPerson(ctx, args.ID)
	if err != nil {
		return nil, PersonResult{}, err
	}
	return nil, PersonResult{Person: p}, nil
}

func (s *Server) handleGetNetwork(ctx context.Context, _ *mcp.CallToolRequest, args PersonIDArgs) (*mcp.CallToolResult, NetworkResult, error) {
	n, err := s.svc.Network(ctx, args.ID)
	if err != nil {
		return nil, NetworkResult{}, err
	}
	return nil, NetworkResult{Nodes: n.Nodes, Edges: n.Edges}, nil
}

func (s *Server) handleCreatePerson(ctx context.Context, _ *mcp.CallToolRequest, args CreatePersonArgs) (*mcp.CallToolResult, PersonResult, error) {
	p, err := s.svc.CreatePerson(ctx, args.input())
	if err != nil {
		return nil, PersonResult{}, err
	}
	return nil, PersonResult{Person: p}, nil
}

func (s *Server) handleCreateRelationship(ctx context.Context, _ *mcp.CallToolRequest, args CreateRelationshipArgs) (*mcp.CallToolResult, RelationshipResult, error) {
	r, err := s.svc.CreateRelationship(ctx, domain.RelationshipInput{
		PersonID:         &args.PersonID,
		RelatedPersonID:  &args.RelatedPersonID,
		RelationshipType: &args.RelationshipType,
	})
	if err != nil {
		return nil, RelationshipResult{}, err
	}
	return nil, RelationshipResult{Relationship: r}, nil
}
