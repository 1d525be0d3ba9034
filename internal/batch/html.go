package batch

import (
	"html/template"
	"os"

	"github.com/videokit/bgremove/pkg/models"
)

// htmlReport is the data handed to the report template.
type htmlReport struct {
	*models.BatchReport
	SuccessRate float64
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Batch Video Processing Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; }
        h1 { color: #333; text-align: center; }
        .summary { background: #e8f4fd; padding: 15px; border-radius: 5px; margin: 20px 0; }
        .stats { display: flex; justify-content: space-around; margin: 20px 0; }
        .stat-item { text-align: center; padding: 10px; }
        .stat-number { font-size: 2em; font-weight: bold; color: #2196F3; }
        .stat-label { color: #666; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
        th { background-color: #f8f9fa; font-weight: bold; }
        .success { color: #4CAF50; font-weight: bold; }
        .failed { color: #f44336; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Batch Video Background Removal Report</h1>

        <div class="summary">
            <h3>Summary</h3>
            <p><strong>Generated:</strong> {{.Timestamp}}</p>
            <p><strong>Model:</strong> {{.ModelName}}</p>
            <p><strong>Max frames:</strong> {{if .MaxFrames}}{{.MaxFrames}}{{else}}unlimited{{end}}</p>
            <p><strong>Total processing time:</strong> {{printf "%.2f" .Statistics.TotalProcessingTime}}s</p>
        </div>

        <div class="stats">
            <div class="stat-item">
                <div class="stat-number">{{.Statistics.TotalFiles}}</div>
                <div class="stat-label">Total</div>
            </div>
            <div class="stat-item">
                <div class="stat-number success">{{.Statistics.Successful}}</div>
                <div class="stat-label">Succeeded</div>
            </div>
            <div class="stat-item">
                <div class="stat-number failed">{{.Statistics.Failed}}</div>
                <div class="stat-label">Failed</div>
            </div>
        </div>
        <p style="text-align: center;">Success rate: {{printf "%.1f" .SuccessRate}}%</p>

        <h3>Details</h3>
        <table>
            <thead>
                <tr>
                    <th>Video</th>
                    <th>Status</th>
                    <th>Time</th>
                    <th>Frames</th>
                    <th>Resolution</th>
                    <th>FPS</th>
                    <th>Note</th>
                </tr>
            </thead>
            <tbody>
{{range .Results}}                <tr>
                    <td>{{.VideoName}}</td>
                    {{if .Succeeded}}<td class="success">success</td>{{else}}<td class="failed">failed</td>{{end}}
                    <td>{{printf "%.2f" .ProcessingTime}}s</td>
                    {{if .Succeeded}}<td>{{.FrameCount}}</td>
                    <td>{{index .Resolution 0}}x{{index .Resolution 1}}</td>
                    <td>{{printf "%.2f" .FPS}}</td>
                    <td>done</td>{{else}}<td>N/A</td>
                    <td>N/A</td>
                    <td>N/A</td>
                    <td>{{.Error}}</td>{{end}}
                </tr>
{{end}}            </tbody>
        </table>
    </div>
</body>
</html>
`))

// WriteHTMLReport renders the report for humans. Optional; the JSON
// report is the machine contract.
func WriteHTMLReport(path string, report *models.BatchReport) error {
	data := htmlReport{BatchReport: report}
	if report.Statistics.TotalFiles > 0 {
		data.SuccessRate = float64(report.Statistics.Successful) / float64(report.Statistics.TotalFiles) * 100
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reportTemplate.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
