package kegg

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ecBracketRE       = regexp.MustCompile(`\[EC:([\d .-]+)\]`)
	geneListParensRE  = regexp.MustCompile(`\([^)]*\)`)
	entryTerminatorRE = regexp.MustCompile(`///\s*$`)
	nonSequenceRE     = regexp.MustCompile(`[^A-Z]+`)
)

// ParseOrganismLine parses one line of /list/organism. Fields are separated
// by tabs: T number, organism code, name, lineage.
func ParseOrganismLine(line string) (Organism, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return Organism{}, errors.Errorf("organism line has %d fields: %q", len(fields), line)
	}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}

	org := Organism{
		IDCode: fields[0],
		Code:   fields[1],
		Name:   fields[2],
	}
	if len(fields) > 3 {
		org.Description = fields[3]
	}

	return org, nil
}

// ParsePathwayList parses the body of /list/pathway/<code>. The path:
// prefix KEGG puts in front of pathway identifiers is stripped.
func ParsePathwayList(organismCode, body string) []PathwayRow {
	rows := []PathwayRow{}
	for _, line := range splitLines(body) {
		fields := strings.SplitN(strings.ReplaceAll(line, "path:", ""), "\t", 2)
		row := PathwayRow{
			Organism: organismCode,
			PathID:   strings.TrimSpace(fields[0]),
		}
		if len(fields) > 1 {
			row.Description = strings.TrimSpace(fields[1])
		}
		rows = append(rows, row)
	}

	return rows
}

// ECNumbers returns the sorted set of EC numbers referenced as [EC:...]
// tags in a KEGG flat-file entry. A single tag can carry several
// space-separated numbers; they are returned individually.
func ECNumbers(text string) []string {
	set := map[string]struct{}{}
	for _, m := range ecBracketRE.FindAllStringSubmatch(text, -1) {
		for _, ec := range strings.Fields(m[1]) {
			set[ec] = struct{}{}
		}
	}

	ecs := make([]string, 0, len(set))
	for ec := range set {
		ecs = append(ecs, ec)
	}
	sort.Strings(ecs)

	return ecs
}

// Section extracts the body of a named section of a KEGG flat-file entry,
// with the section keyword and the leading indentation removed. Continuation
// lines of a section start with a space.
func Section(text, name string) (string, bool) {
	lines := strings.Split(text, "\n")
	body := []string{}
	inSection := false
	for _, line := range lines {
		if inSection {
			if !strings.HasPrefix(line, " ") {
				break
			}
			body = append(body, strings.TrimSpace(line))

			continue
		}
		if strings.HasPrefix(line, name) {
			inSection = true
			rest := strings.TrimSpace(strings.TrimPrefix(line, name))
			if rest != "" {
				body = append(body, rest)
			}
		}
	}
	if !inSection {
		return "", false
	}

	return strings.Join(body, "\n"), true
}

// ParseGenes extracts (EC, organism, gene) triples from the GENES section of
// an enzyme entry. Organism codes are lowercased and the parenthesised gene
// symbols KEGG appends to gene identifiers are dropped.
func ParseGenes(ec, text string) []GeneRow {
	section, ok := Section(text, "GENES")
	if !ok {
		return nil
	}

	rows := []GeneRow{}
	for _, line := range strings.Split(section, "\n") {
		organism, geneList, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		geneList = geneListParensRE.ReplaceAllString(geneList, "")
		for _, gene := range strings.Fields(geneList) {
			rows = append(rows, GeneRow{
				EC:       ec,
				Organism: strings.ToLower(strings.TrimSpace(organism)),
				GeneID:   gene,
			})
		}
	}

	return rows
}

// ValidEnzymeEntry reports whether an enzyme response looks complete: it
// starts with ENTRY, is terminated by ///, and mentions the requested EC
// number.
func ValidEnzymeEntry(ec, text string) bool {
	return strings.HasPrefix(text, "ENTRY") &&
		entryTerminatorRE.MatchString(text) &&
		strings.Contains(text, ec)
}

// ParseFASTA splits a FASTA document into its header and its sequence, with
// everything that is not an uppercase letter removed from the sequence.
func ParseFASTA(text string) (header, seq string, err error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, ">") {
		return "", "", errors.New("not a FASTA document")
	}

	head, rest, _ := strings.Cut(trimmed, "\n")
	header = strings.TrimSpace(strings.TrimPrefix(head, ">"))
	seq = nonSequenceRE.ReplaceAllString(rest, "")
	if header == "" || seq == "" {
		return "", "", errors.New("empty FASTA header or sequence")
	}

	return header, seq, nil
}

func splitLines(body string) []string {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return nil
	}

	return strings.Split(body, "\n")
}
