package handler

import "github.com/permpkin/admin-console/internal/schema"

var (
	userStatuses  = []string{"Pending", "Active", "Paused"}
	userRoles     = []string{"Admin", "Client", "Standard"}
	groupStatuses = []string{"Active", "Paused"}
)

// Inbound payloads.
var (
	createUserShape = schema.Shape{
		"email":    schema.Str().Req().WithFormat("email", "Email is invalid"),
		"display":  schema.Str(),
		"password": schema.Str().Verbatim().WithFormat("min=8", "Password is too short"),
		"status":   schema.OneOf(userStatuses...),
		"role":     schema.OneOf(userRoles...),
		"group":    schema.Str().Null(),
		"tags":     schema.List(schema.Str()),
	}

	updateUserShape = schema.Shape{
		"email":    schema.Str().WithFormat("email", "Email is invalid"),
		"display":  schema.Str(),
		"password": schema.Str().Verbatim().WithFormat("min=8", "Password is too short"),
		"status":   schema.OneOf(userStatuses...),
		"role":     schema.OneOf(userRoles...),
		"group":    schema.Str().Null(),
		"tags":     schema.List(schema.Str()),
	}

	createGroupShape = schema.Shape{
		"title":       schema.Str().Req(),
		"description": schema.Str(),
		"status":      schema.OneOf(groupStatuses...),
		"tags":        schema.List(schema.Str()),
	}

	updateGroupShape = schema.Shape{
		"title":       schema.Str(),
		"description": schema.Str(),
		"status":      schema.OneOf(groupStatuses...),
		"tags":        schema.List(schema.Str()),
	}

	userFilterShape = schema.Shape{
		"role":   schema.OneOf(userRoles...),
		"status": schema.OneOf(userStatuses...),
		"tags":   schema.List(schema.Str()),
		"group":  schema.Str().WithFormat("uuid", "Group id is invalid"),
	}

	groupFilterShape = schema.Shape{
		"status": schema.OneOf(groupStatuses...),
		"tags":   schema.List(schema.Str()),
	}

	loginShape = schema.Shape{
		"email":      schema.Str().ReqMsg("Email is invalid").WithFormat("email", "Email is invalid"),
		"password":   schema.Str().Verbatim().ReqMsg("Password is required").WithFormat("min=8", "Password is too short"),
		"remember":   schema.Bool(),
		"redirectTo": schema.Str(),
	}
)

// Outbound views. Anything not listed here never leaves the server.
var (
	tagView = schema.Shape{
		"id":   schema.Str(),
		"name": schema.Str(),
	}

	userView = schema.Shape{
		"id":        schema.Str(),
		"email":     schema.Str(),
		"display":   schema.Str(),
		"status":    schema.Str(),
		"role":      schema.Str(),
		"group":     schema.Obj(schema.Shape{"id": schema.Str(), "title": schema.Str()}),
		"tags":      schema.ListOf(tagView),
		"createdAt": schema.Str(),
		"updatedAt": schema.Str(),
	}

	groupView = schema.Shape{
		"id":          schema.Str(),
		"title":       schema.Str(),
		"description": schema.Str(),
		"status":      schema.Str(),
		"tags":        schema.ListOf(tagView),
		"users": schema.ListOf(schema.Shape{
			"id":      schema.Str(),
			"email":   schema.Str(),
			"display": schema.Str(),
			"role":    schema.Str(),
			"status":  schema.Str(),
		}),
		"createdAt": schema.Str(),
		"updatedAt": schema.Str(),
	}

	navView = schema.Shape{
		"name": schema.Str(),
		"href": schema.Str(),
	}
)
