package service

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"html/template"
	"io"

	dossierDomain "github.com/allisson/trustlog/internal/dossier/domain"
)

type jsonRenderer struct{}

func (jsonRenderer) Render(w io.Writer, doc *dossierDomain.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

type csvRenderer struct{}

func (csvRenderer) Render(w io.Writer, doc *dossierDomain.Document) error {
	cw := csv.NewWriter(w)
	for _, line := range headerLines(&doc.Dossier) {
		if err := cw.Write([]string{"# " + line[0], line[1]}); err != nil {
			return err
		}
	}
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for i := range doc.Records {
		if err := cw.Write(tableRow(&doc.Records[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type xmlDossier struct {
	XMLName        xml.Name    `xml:"dossier"`
	ID             string      `xml:"id,attr"`
	RequestNumber  string      `xml:"request_number,attr"`
	Type           string      `xml:"type,attr"`
	TenantID       string      `xml:"tenant_id,attr"`
	TenantName     string      `xml:"tenant_name"`
	From           string      `xml:"from"`
	To             string      `xml:"to"`
	GeneratedFor   string      `xml:"generated_for"`
	Kinds          []string    `xml:"kinds>kind"`
	RecordCount    int         `xml:"record_count"`
	SignatureCount int         `xml:"signature_count"`
	Records        []xmlRecord `xml:"records>record"`
}

type xmlRecord struct {
	ID          string        `xml:"id,attr"`
	Kind        string        `xml:"kind,attr"`
	EntryTime   string        `xml:"entry_time"`
	ContentHash string        `xml:"content_hash"`
	Suspicious  bool          `xml:"suspicious"`
	Payload     string        `xml:"payload"`
	Signature   *xmlSignature `xml:"signature,omitempty"`
}

type xmlSignature struct {
	Status        string `xml:"status,attr"`
	Serial        string `xml:"serial"`
	SignedAt      string `xml:"signed_at"`
	TSA           string `xml:"tsa"`
	HashAlgorithm string `xml:"hash_algorithm"`
	TokenHash     string `xml:"token_hash"`
}

type xmlRenderer struct{}

func (xmlRenderer) Render(w io.Writer, doc *dossierDomain.Document) error {
	h := doc.Dossier
	out := xmlDossier{
		ID:             h.ID,
		RequestNumber:  h.RequestNumber,
		Type:           h.Type,
		TenantID:       h.TenantID,
		TenantName:     h.TenantName,
		From:           h.From,
		To:             h.To,
		GeneratedFor:   h.GeneratedFor,
		Kinds:          h.Kinds,
		RecordCount:    h.RecordCount,
		SignatureCount: h.SignatureCount,
		Records:        make([]xmlRecord, 0, len(doc.Records)),
	}
	for i := range doc.Records {
		r := &doc.Records[i]
		rec := xmlRecord{
			ID:          r.ID,
			Kind:        r.Kind,
			EntryTime:   r.EntryTime,
			ContentHash: r.ContentHash,
			Suspicious:  r.Suspicious,
			Payload:     r.PayloadJSON(),
		}
		if s := r.Signature; s != nil {
			rec.Signature = &xmlSignature{
				Status:        s.Status,
				Serial:        s.Serial,
				SignedAt:      s.SignedAt,
				TSA:           s.TSA,
				HashAlgorithm: s.HashAlgorithm,
				TokenHash:     s.TokenHash,
			}
		}
		out.Records = append(out.Records, rec)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

var htmlTemplate = template.Must(template.New("dossier").Parse(`<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="utf-8">
<title>{{.Header.RequestNumber}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 2px 4px; vertical-align: top; }
td.payload { font-family: monospace; word-break: break-all; }
</style>
</head>
<body>
<h1>{{.Header.RequestNumber}}</h1>
<dl>
{{- range .Lines}}
<dt>{{index . 0}}</dt><dd>{{index . 1}}</dd>
{{- end}}
</dl>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range $i, $v := .}}<td{{if eq $i 8}} class="payload"{{end}}>{{$v}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type htmlRenderer struct{}

func (htmlRenderer) Render(w io.Writer, doc *dossierDomain.Document) error {
	rows := make([][]string, 0, len(doc.Records))
	for i := range doc.Records {
		rows = append(rows, tableRow(&doc.Records[i]))
	}
	return htmlTemplate.Execute(w, struct {
		Header  dossierDomain.DocumentHeader
		Lines   [][2]string
		Columns []string
		Rows    [][]string
	}{
		Header:  doc.Dossier,
		Lines:   headerLines(&doc.Dossier),
		Columns: tableHeader,
		Rows:    rows,
	})
}
