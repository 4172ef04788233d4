package ui

import (
	"strings"

	"github.com/google/uuid"
	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/platinummonkey/taskboard/pkg/auth"
	"github.com/platinummonkey/taskboard/pkg/todos"
)

const stylesheet = `
body { font-family: system-ui, sans-serif; margin: 0; background: #f6f8fa; color: #1f2328; }
header { display: flex; justify-content: space-between; align-items: center; padding: 12px 24px; background: #24292f; color: #fff; }
main { max-width: 960px; margin: 24px auto; padding: 0 16px; }
table { width: 100%; border-collapse: collapse; background: #fff; }
th, td { text-align: left; padding: 8px; border-bottom: 1px solid #d0d7de; vertical-align: top; }
form.inline { display: inline; }
.card { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 16px; margin-bottom: 16px; }
.error { color: #cf222e; }
.status { font-size: 12px; padding: 2px 8px; border-radius: 12px; background: #ddf4ff; }
`

func page(title string, user *auth.User, csrf gomponents.Node, body ...gomponents.Node) gomponents.Node {
	return html.Doctype(html.HTML(
		html.Lang("en"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | Taskboard")),
			html.StyleEl(gomponents.Raw(stylesheet)),
		),
		html.Body(
			html.Header(
				html.Strong(gomponents.Text("Taskboard")),
				gomponents.If(user != nil && csrf != nil, userMenu(user, csrf)),
			),
			html.Main(gomponents.Group(body)),
		),
	))
}

func userMenu(user *auth.User, csrf gomponents.Node) gomponents.Node {
	if user == nil {
		return nil
	}
	return html.Div(
		html.Span(gomponents.Textf("%s (%s) ", user.Email, user.Role)),
		html.Form(
			html.Class("inline"),
			html.Method("post"),
			html.Action("/ui/logout"),
			csrf,
			html.Button(html.Type("submit"), gomponents.Text("Sign out")),
		),
	)
}

func loginPage(csrf gomponents.Node, errMsg string, oidcEnabled bool) gomponents.Node {
	return page("Sign in", nil, nil,
		html.Div(
			html.Class("card"),
			html.H1(gomponents.Text("Sign in")),
			gomponents.If(errMsg != "", html.P(html.Class("error"), gomponents.Text(errMsg))),
			html.Form(
				html.Method("post"),
				html.Action(loginPath),
				csrf,
				html.Label(gomponents.Text("Email")),
				html.Input(html.Type("email"), html.Name("email"), html.Required()),
				html.Label(gomponents.Text("Password")),
				html.Input(html.Type("password"), html.Name("password"), html.Required()),
				html.Button(html.Type("submit"), gomponents.Text("Sign in")),
			),
			gomponents.If(oidcEnabled, html.P(html.A(html.Href("/auth/oidc/login"), gomponents.Text("Sign in with your organization")))),
		),
	)
}

func todosPage(user *auth.User, rows []todoRow, canCreate bool, csrf gomponents.Node) gomponents.Node {
	return page("Todos", user, csrf,
		gomponents.If(canCreate, createForm(csrf)),
		html.Div(
			html.Class("card"),
			html.H1(gomponents.Text("Todos")),
			gomponents.If(len(rows) == 0, html.P(gomponents.Text("Nothing to show."))),
			gomponents.If(len(rows) > 0, todoTable(rows, csrf)),
		),
	)
}

func createForm(csrf gomponents.Node) gomponents.Node {
	return html.Div(
		html.Class("card"),
		html.H2(gomponents.Text("New todo")),
		html.Form(
			html.ID("create-todo"),
			html.Method("post"),
			html.Action(todosPath),
			csrf,
			// A fresh key per render makes a double submit create one todo
			html.Input(html.Type("hidden"), html.Name("idempotency_key"), html.Value(uuid.NewString())),
			html.Label(gomponents.Text("Title")),
			html.Input(html.Name("title"), html.Required(), html.MaxLength("200")),
			html.Label(gomponents.Text("Description")),
			html.Textarea(html.Name("description")),
			html.Button(html.Type("submit"), gomponents.Text("Create")),
		),
	)
}

func todoTable(rows []todoRow, csrf gomponents.Node) gomponents.Node {
	return html.Table(
		html.THead(html.Tr(
			html.Th(gomponents.Text("Title")),
			html.Th(gomponents.Text("Status")),
			html.Th(gomponents.Text("Owner")),
			html.Th(gomponents.Text("Actions")),
		)),
		html.TBody(gomponents.Map(rows, func(row todoRow) gomponents.Node {
			return todoRowNode(row, csrf)
		})),
	)
}

func todoRowNode(row todoRow, csrf gomponents.Node) gomponents.Node {
	t := row.Todo
	return html.Tr(
		html.ID("todo-"+t.ID),
		html.Td(
			html.Strong(gomponents.Text(t.Title)),
			gomponents.If(t.Description != "", html.P(gomponents.Text(t.Description))),
		),
		html.Td(html.Span(html.Class("status"), gomponents.Text(statusLabel(t.Status)))),
		html.Td(gomponents.Text(t.OwnerID)),
		html.Td(
			gomponents.If(row.Capabilities.Update, statusForm(t, csrf)),
			gomponents.If(row.Capabilities.Delete, deleteForm(t, csrf)),
		),
	)
}

func statusForm(t *todos.Todo, csrf gomponents.Node) gomponents.Node {
	options := make([]gomponents.Node, 0, len(todos.Statuses()))
	for _, s := range todos.Statuses() {
		options = append(options, html.Option(
			html.Value(string(s)),
			gomponents.If(s == t.Status, html.Selected()),
			gomponents.Text(statusLabel(s)),
		))
	}
	return html.Form(
		html.Class("inline status-form"),
		html.Method("post"),
		html.Action(todosPath+"/"+t.ID+"/status"),
		csrf,
		html.Select(html.Name("status"), gomponents.Group(options)),
		html.Button(html.Type("submit"), gomponents.Text("Set")),
	)
}

func deleteForm(t *todos.Todo, csrf gomponents.Node) gomponents.Node {
	return html.Form(
		html.Class("inline delete-form"),
		html.Method("post"),
		html.Action(todosPath+"/"+t.ID+"/delete"),
		csrf,
		html.Button(html.Type("submit"), gomponents.Text("Delete")),
	)
}

func errorPage(title, message string) gomponents.Node {
	return page(title, nil, nil,
		html.Div(
			html.Class("card"),
			html.H1(gomponents.Text(title)),
			html.P(html.Class("error"), gomponents.Text(message)),
			html.P(html.A(html.Href(todosPath), gomponents.Text("Back to todos"))),
		),
	)
}

func statusLabel(s todos.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
