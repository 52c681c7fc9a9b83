package web

import (
	"net/http"
	"path/filepath"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/mgorham/queryboard/model"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	defs := s.catalog.Discover(r.Context())

	views := make([]model.QueryView, 0, len(defs))
	for _, def := range defs {
		views = append(views, model.QueryView{
			ID:       def.Identifier,
			Title:    def.Title,
			Summary:  def.Summary,
			Filename: filepath.Base(def.FilePath),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(views).Render(w); err != nil {
		http.Error(w, "render failure", http.StatusInternalServerError)
	}
}

func indexPage(queries []model.QueryView) gomponents.Node {
	cards := make([]gomponents.Node, 0, len(queries))
	for i := range queries {
		cards = append(cards, queryCard(queries[i]))
	}

	return html.Doctype(
		html.HTML(html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.TitleEl(gomponents.Text("Queryboard")),
				html.StyleEl(gomponents.Raw(pageStyle)),
			),
			html.Body(
				html.H1(gomponents.Text("Queryboard")),
				html.P(html.Class("subtitle"), gomponents.Text("Run an analytics query and fetch its chart and data files.")),
				html.Div(html.Class("grid"), gomponents.Group(cards)),
				html.Script(gomponents.Raw(pageScript)),
			),
		),
	)
}

func queryCard(q model.QueryView) gomponents.Node {
	return html.Div(html.Class("card"), html.Data("query-id", q.ID),
		html.H2(gomponents.Text(q.Title)),
		gomponents.If(q.Summary != "",
			html.P(html.Class("summary"), gomponents.Text(q.Summary))),
		html.P(html.Class("filename"), gomponents.Text(q.Filename)),
		html.Label(gomponents.Text("Start "),
			html.Input(html.Type("date"), html.Class("start-date"))),
		html.Label(gomponents.Text("End "),
			html.Input(html.Type("date"), html.Class("end-date"))),
		html.Button(html.Class("run"), gomponents.Text("Run")),
		html.Div(html.Class("status")),
		html.Div(html.Class("result")),
	)
}

const pageStyle = `
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 72rem; padding: 0 1rem; }
.subtitle { color: #555; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(20rem, 1fr)); gap: 1rem; }
.card { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; }
.card h2 { font-size: 1.05rem; margin: 0 0 .5rem; }
.summary { color: #333; font-size: .9rem; }
.filename { color: #888; font-size: .8rem; }
.card label { display: block; font-size: .85rem; margin: .25rem 0; }
.status { margin-top: .5rem; font-size: .85rem; color: #555; }
.result img { max-width: 100%; margin-top: .5rem; }
.result ul { padding-left: 1.2rem; font-size: .85rem; }
`

const pageScript = `
document.querySelectorAll('.card .run').forEach(function (button) {
  button.addEventListener('click', function () {
    var card = button.closest('.card');
    runQuery(card);
  });
});

function runQuery(card) {
  var status = card.querySelector('.status');
  var result = card.querySelector('.result');
  result.innerHTML = '';
  status.textContent = 'submitting…';

  fetch('/api/run-query', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify({
      queryId: card.dataset.queryId,
      startDate: card.querySelector('.start-date').value,
      endDate: card.querySelector('.end-date').value
    })
  })
    .then(function (resp) { return resp.json(); })
    .then(function (body) {
      if (!body.jobId) { status.textContent = body.error || 'submit failed'; return; }
      poll(body.jobId, status, result);
    })
    .catch(function () { status.textContent = 'submit failed'; });
}

function poll(jobId, status, result) {
  fetch('/api/jobs/' + jobId)
    .then(function (resp) { return resp.json(); })
    .then(function (job) {
      status.textContent = job.status;
      if (job.status === 'queued' || job.status === 'running') {
        setTimeout(function () { poll(jobId, status, result); }, 1000);
        return;
      }
      if (job.status === 'error') { status.textContent = 'error: ' + (job.error || 'unknown'); }
      if (job.hasChart) {
        var img = document.createElement('img');
        img.src = job.chartUrl;
        result.appendChild(img);
      }
      if (job.dataFiles && job.dataFiles.length) {
        var list = document.createElement('ul');
        job.dataFiles.forEach(function (file) {
          var item = document.createElement('li');
          var link = document.createElement('a');
          link.href = file.url;
          link.textContent = file.name;
          item.appendChild(link);
          list.appendChild(item);
        });
        result.appendChild(list);
      }
    })
    .catch(function () { status.textContent = 'status check failed'; });
}
`
