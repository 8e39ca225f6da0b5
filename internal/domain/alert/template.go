package alert

import (
	"html/template"
	"strings"
)

var digestTmpl = template.Must(template.New("digest").Parse(`<html>
<body>
<h3>Antibiotic dosing alerts - {{.Department}}</h3>
<p>The daily review found the following prescriptions outside guideline ranges:</p>
<ul>
{{- range .Messages}}
<li>{{.}}</li>
{{- end}}
</ul>
<p>Please review the orders above.</p>
</body>
</html>`))

var manualTmpl = template.Must(template.New("manual").Parse(`<html>
<body>
<h3>Antibiotic dosing alert - {{.Department}}</h3>
<p>A prescription entered for <b>{{.PatientName}}</b> ({{.PatientCode}}) is outside the guideline range.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><td>Antibiotic</td><td>{{.DrugName}}</td></tr>
<tr><td>Dose</td><td>{{.Dose}}</td></tr>
<tr><td>Frequency</td><td>{{.Frequency}}</td></tr>
{{- if .RecommendedDose}}
<tr><td>Recommended dose</td><td>{{.RecommendedDose}}</td></tr>
<tr><td>Recommended frequency</td><td>every {{.RecommendedFrequency}} hours</td></tr>
{{- end}}
</table>
<p>{{.Reason}}</p>
</body>
</html>`))

type digestData struct {
	Department string
	Messages   []string
}

func renderDigestHTML(department string, messages []string) string {
	var b strings.Builder
	if err := digestTmpl.Execute(&b, digestData{Department: department, Messages: messages}); err != nil {
		return ""
	}
	return b.String()
}

func renderDigestText(department string, messages []string) string {
	var b strings.Builder
	b.WriteString("Antibiotic dosing alerts - " + department + "\n\n")
	for _, m := range messages {
		b.WriteString("- " + m + "\n")
	}
	b.WriteString("\nPlease review the orders above.\n")
	return b.String()
}

type manualData struct {
	Department           string
	PatientName          string
	PatientCode          string
	DrugName             string
	Dose                 string
	Frequency            string
	RecommendedDose      string
	RecommendedFrequency string
	Reason               string
}

func renderManualHTML(d manualData) string {
	var b strings.Builder
	if err := manualTmpl.Execute(&b, d); err != nil {
		return ""
	}
	return b.String()
}

func renderManualText(d manualData) string {
	var b strings.Builder
	b.WriteString("Antibiotic dosing alert - " + d.Department + "\n\n")
	b.WriteString("Patient: " + d.PatientName + " (" + d.PatientCode + ")\n")
	b.WriteString("Antibiotic: " + d.DrugName + "\n")
	b.WriteString("Dose: " + d.Dose + "\n")
	b.WriteString("Frequency: " + d.Frequency + "\n")
	if d.RecommendedDose != "" {
		b.WriteString("Recommended dose: " + d.RecommendedDose + "\n")
		b.WriteString("Recommended frequency: every " + d.RecommendedFrequency + " hours\n")
	}
	b.WriteString("\n" + d.Reason + "\n")
	return b.String()
}
