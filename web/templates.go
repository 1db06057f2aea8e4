package web

import (
	"html/template"
	"strings"
)

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"toggleValue": func(completed bool) string {
			if completed {
				return "0"
			}
			return "1"
		},
		"upper": strings.ToUpper,
	}
	tmpl := template.Must(template.New("index").Funcs(funcs).Parse(indexTemplate))
	template.Must(tmpl.New("message").Parse(messageTemplate))
	template.Must(tmpl.New("style").Parse(styleTemplate))
	return tmpl
}

const styleTemplate = `<style>
    :root {
      color-scheme: light;
    }
    body {
      margin: 0;
      font-family: "Charter", "Georgia", serif;
      color: #2b2520;
      background: radial-gradient(circle at top left, #f4efe3 0%, #fcfaf6 55%, #f6f2e8 100%);
    }
    header {
      padding: 16px 24px;
      border-bottom: 1px solid #d7cdbd;
      background: rgba(255, 255, 255, 0.72);
    }
    header h1, header h2 {
      margin: 0;
      font-size: 20px;
      letter-spacing: 0.02em;
    }
    main {
      display: flex;
      flex-direction: column;
      gap: 18px;
      padding: 18px 24px 28px;
      max-width: 720px;
    }
    .pane {
      background: #ffffff;
      border: 1px solid #d7cdbd;
      border-radius: 14px;
      box-shadow: 0 8px 24px rgba(60, 45, 30, 0.08);
      padding: 16px 20px;
    }
    .tasks-list {
      list-style: none;
      padding: 0;
      margin: 12px 0 0;
      display: flex;
      flex-direction: column;
      gap: 8px;
    }
    .task-item {
      display: flex;
      align-items: center;
      gap: 10px;
    }
    .task-item form {
      display: inline;
    }
    .task-name {
      flex: 1;
    }
    .completed .task-name {
      text-decoration: line-through;
      color: #888;
    }
    input[type="text"],
    input[type="email"] {
      padding: 8px 10px;
      border-radius: 8px;
      border: 1px solid #cbbfae;
      font-family: inherit;
      font-size: 14px;
      background: #fffdf9;
    }
    button {
      padding: 8px 14px;
      border-radius: 8px;
      border: 1px solid #bfb3a2;
      background: #efe6d7;
      font-family: inherit;
      cursor: pointer;
    }
    button.delete-task {
      background: #f4d7d2;
      border-color: #d7a7a1;
    }
    .error {
      color: #5b1d17;
    }
    .muted {
      color: #72685f;
    }
</style>`

const indexTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Task Planner</title>
  {{template "style"}}
</head>
<body>
  <header><h1>Task Planner</h1></header>
  <main>
    <section class="pane">
      <form method="POST" action="/tasks/add">
        <input type="text" name="task-name" id="task-name" placeholder="Enter new task" required>
        <button type="submit" id="add-task">Add Task</button>
        {{if .TaskError}}<span class="error" id="task-error">{{.TaskError}}</span>{{end}}
      </form>

      <ul class="tasks-list" id="tasks-list">
        {{range .Tasks}}
        <li class="task-item{{if .Completed}} completed{{end}}" data-task-id="{{.ID}}">
          <form method="POST" action="/tasks/toggle">
            <input type="hidden" name="task-id" value="{{.ID}}">
            <input type="hidden" name="toggle-task" value="{{toggleValue .Completed}}">
            <input type="checkbox" class="task-status" onchange="this.form.submit()"{{if .Completed}} checked{{end}}>
          </form>
          <span class="task-name">{{.Name}}</span>
          <form method="POST" action="/tasks/delete">
            <input type="hidden" name="task-id" value="{{.ID}}">
            <button type="submit" class="delete-task" name="delete-task" value="1">Delete</button>
          </form>
        </li>
        {{else}}
        <li class="muted">No tasks yet.</li>
        {{end}}
      </ul>
    </section>

    <section class="pane">
      <form method="POST" action="/subscribe">
        <input type="email" name="email" required>
        <button type="submit" id="submit-email">Subscribe</button>
        {{if .EmailMessage}}<span id="email-message">{{.EmailMessage}}</span>{{end}}
      </form>
    </section>

    <footer class="muted">
      Export:
      {{range .Formats}}<a href="/tasks/export?format={{.}}">{{upper (print .)}}</a> {{end}}
    </footer>
  </main>
</body>
</html>
`

const messageTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  {{template "style"}}
</head>
<body>
  <header><h2 id="{{.HeadingID}}">{{.Heading}}</h2></header>
  <main>
    <p class="pane">{{.Message}}</p>
    <p><a href="/">Back to tasks</a></p>
  </main>
</body>
</html>
`
