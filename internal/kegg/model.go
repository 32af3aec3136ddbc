package kegg

// Organism is one row of the KEGG organism list.
type Organism struct {
	IDCode      string `csv:"id_code"`
	Code        string `csv:"code"`
	Name        string `csv:"name_organism"`
	Description string `csv:"description"`
}

// PathwayRow is one pathway of an organism.
type PathwayRow struct {
	Organism    string `csv:"organism"`
	PathID      string `csv:"path_id"`
	Description string `csv:"description_path"`
}

// EnzymeRow links an EC number to the pathway it was found in.
type EnzymeRow struct {
	Organism string `csv:"organism"`
	Pathway  string `csv:"pathway"`
	EC       string `csv:"code_enzyme"`
}

// GeneRow is one gene referenced by the GENES section of an enzyme entry.
type GeneRow struct {
	EC       string
	Organism string
	GeneID   string
}

// SeqKey identifies an amino-acid sequence to fetch.
type SeqKey struct {
	Organism string
	GeneID   string
}

// SequenceRow is one row of the final sequences file. The sequence columns
// stay empty when the sequence could not be fetched.
type SequenceRow struct {
	EC                  string `csv:"enzyme_code"`
	Organism            string `csv:"organism"`
	SequenceID          string `csv:"sequence_id"`
	SequenceDescription string `csv:"sequence_description"`
	SequenceAA          string `csv:"sequence_aa"`
}
