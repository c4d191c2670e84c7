// internal/annotation/tasks.go
package annotation

const (
	// TaskVarPheno scores variant-phenotype association annotations.
	TaskVarPheno = "var-pheno"
	// TaskVarDrug scores variant-drug association annotations.
	TaskVarDrug = "var-drug"
	// TaskVarFA scores functional analysis annotations.
	TaskVarFA = "var-fa"
	// TaskStudyParameters scores study parameter annotations.
	TaskStudyParameters = "study-parameters"
)

// defaultMatchThreshold is the minimum key-field similarity used by most
// tasks when pairing predictions with ground truth.
const defaultMatchThreshold = 0.5

var varPhenoTask = TaskSpec{
	Name:           TaskVarPheno,
	JSONKey:        "var_pheno_ann",
	MatchThreshold: defaultMatchThreshold,
	Fields: []FieldSpec{
		{Name: "Variant/Haplotypes", Kind: KindFuzzy, Key: true},
		{Name: "Gene", Kind: KindFuzzy, Key: true},
		{Name: "Drug(s)", Kind: KindSet, Weight: 1.5},
		{Name: "Phenotype Category", Kind: KindCategory, Weight: 0.5},
		{Name: "Alleles", Kind: KindSet, Weight: 1.5},
		{Name: "Is/Is Not associated", Kind: KindCategory},
		{Name: "Direction of effect", Kind: KindCategory, Weight: 2},
		{Name: "Phenotype", Kind: KindFuzzy, Weight: 2, Key: true},
		{Name: "When treated with/exposed to/when assayed with", Kind: KindText, Weight: 0.5},
		{Name: "Comparison Allele(s) or Genotype(s)", Kind: KindSet},
	},
}

var varDrugTask = TaskSpec{
	Name:           TaskVarDrug,
	JSONKey:        "var_drug_ann",
	MatchThreshold: defaultMatchThreshold,
	Fields: []FieldSpec{
		{Name: "Variant/Haplotypes", Kind: KindFuzzy, Key: true},
		{Name: "Gene", Kind: KindFuzzy, Key: true},
		{Name: "Drug(s)", Kind: KindSet, Weight: 2, Key: true},
		{Name: "Phenotype Category", Kind: KindCategory, Weight: 0.5},
		{Name: "Alleles", Kind: KindSet, Weight: 1.5},
		{Name: "Is/Is Not associated", Kind: KindCategory},
		{Name: "Direction of effect", Kind: KindCategory, Weight: 2},
		{Name: "PK/PD terms", Kind: KindFuzzy},
		{Name: "Comparison Allele(s) or Genotype(s)", Kind: KindSet},
	},
}

var varFATask = TaskSpec{
	Name:           TaskVarFA,
	JSONKey:        "var_fa_ann",
	MatchThreshold: defaultMatchThreshold,
	Fields: []FieldSpec{
		{Name: "Variant/Haplotypes", Kind: KindFuzzy, Key: true},
		{Name: "Gene", Kind: KindFuzzy, Key: true},
		{Name: "Drug(s)", Kind: KindSet},
		{Name: "Alleles", Kind: KindSet, Weight: 1.5},
		{Name: "Is/Is Not associated", Kind: KindCategory},
		{Name: "Direction of effect", Kind: KindCategory, Weight: 2},
		{Name: "Functional terms", Kind: KindFuzzy, Weight: 2},
		{Name: "Gene/gene product", Kind: KindFuzzy},
		{Name: "Cell type", Kind: KindText},
		{Name: "Comparison Allele(s) or Genotype(s)", Kind: KindSet},
	},
}

// Study parameters rows carry many null numeric fields, so a lower
// threshold is needed to pair rows at all.
var studyParametersTask = TaskSpec{
	Name:           TaskStudyParameters,
	JSONKey:        "study_parameters",
	MatchThreshold: 0.3,
	Fields: []FieldSpec{
		{Name: "Study Type", Kind: KindCategory, Key: true},
		{Name: "Study Cases", Kind: KindNumeric, Key: true},
		{Name: "Study Controls", Kind: KindNumeric, Key: true},
		{Name: "Characteristics", Kind: KindText},
		{Name: "Characteristics Type", Kind: KindCategory},
		{Name: "Frequency In Cases", Kind: KindNumeric},
		{Name: "Allele Of Frequency In Cases", Kind: KindFuzzy},
		{Name: "Frequency In Controls", Kind: KindNumeric},
		{Name: "Allele Of Frequency In Controls", Kind: KindFuzzy},
		{Name: "P Value", Kind: KindFuzzy},
		{Name: "Ratio Stat Type", Kind: KindCategory},
		{Name: "Ratio Stat", Kind: KindNumeric},
		{Name: "Confidence Interval Start", Kind: KindNumeric},
		{Name: "Confidence Interval Stop", Kind: KindNumeric},
		{Name: "Biogeographical Groups", Kind: KindSet},
	},
}

// Tasks returns the benchmarked annotation types in report order. The
// returned slice is freshly allocated; the specs themselves are shared and
// must not be mutated.
func Tasks() []TaskSpec {
	return []TaskSpec{varPhenoTask, varDrugTask, varFATask, studyParametersTask}
}

// TaskByName looks up a task spec by its identifier.
func TaskByName(name string) (TaskSpec, bool) {
	for _, t := range Tasks() {
		if t.Name == name {
			return t, true
		}
	}
	return TaskSpec{}, false
}
