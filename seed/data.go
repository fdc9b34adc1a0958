package seed

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"vox-backend/models"
)

// Demo-Bilder aus dem Payload-Website-Template; werden beim Seeding geladen
// und in den Media-Bucket hochgeladen.
var demoImageURLs = []string{
	"https://raw.githubusercontent.com/payloadcms/payload/refs/heads/main/templates/website/src/endpoints/seed/image-post1.webp",
	"https://raw.githubusercontent.com/payloadcms/payload/refs/heads/main/templates/website/src/endpoints/seed/image-post2.webp",
	"https://raw.githubusercontent.com/payloadcms/payload/refs/heads/main/templates/website/src/endpoints/seed/image-post3.webp",
	"https://raw.githubusercontent.com/payloadcms/payload/refs/heads/main/templates/website/src/endpoints/seed/image-hero1.webp",
}

func jsonList(items ...string) datatypes.JSON {
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}

// demoUsers liefert die Forscher-Datensätze: drei PIs, sechs Studenten.
// E-Mail und Passwort-Hash werden beim Anlegen ergänzt.
func demoUsers() []models.User {
	return []models.User{
		{
			Type:      models.RolePI,
			FirstName: "Sarah",
			LastName:  "Chen",
			Title:     "Professor of Cognitive Neuroscience",
			Bio:       "Dr. Sarah Chen is a leading researcher in cognitive neuroscience with over 15 years of experience studying memory systems and decision-making processes.",
			ResearchInterests: jsonList(
				"Memory consolidation", "Neural plasticity", "fMRI methods",
			),
			Website:       "https://sarahchen.example.com",
			ORCID:         "0000-0001-2345-6789",
			GoogleScholar: "https://scholar.google.com/citations?user=example1",
		},
		{
			Type:      models.RolePI,
			FirstName: "Michael",
			LastName:  "Rodriguez",
			Title:     "Associate Professor of Computational Biology",
			Bio:       "Dr. Michael Rodriguez develops machine-learning methods for genomic data and leads several interdisciplinary sequencing projects.",
			ResearchInterests: jsonList(
				"Genomics", "Machine learning", "Systems biology",
			),
			Website:       "https://mrodriguez.example.com",
			ORCID:         "0000-0002-3456-7890",
			GoogleScholar: "https://scholar.google.com/citations?user=example2",
		},
		{
			Type:      models.RolePI,
			FirstName: "Emily",
			LastName:  "Watson",
			Title:     "Professor of Quantum Physics",
			Bio:       "Dr. Emily Watson works on quantum information processing and error correction in superconducting qubit systems.",
			ResearchInterests: jsonList(
				"Quantum computing", "Error correction", "Superconducting qubits",
			),
			Website: "https://ewatson.example.com",
			ORCID:   "0000-0003-4567-8901",
		},
		{
			Type:      models.RoleStudent,
			FirstName: "James",
			LastName:  "Park",
			Title:     "PhD Candidate",
			Bio:       "James studies sleep-dependent memory consolidation using EEG and behavioral experiments.",
			ResearchInterests: jsonList(
				"Sleep research", "Memory",
			),
		},
		{
			Type:      models.RoleStudent,
			FirstName: "Maria",
			LastName:  "Gonzalez",
			Title:     "PhD Student",
			Bio:       "Maria investigates the neural basis of value-based decision making.",
			ResearchInterests: jsonList(
				"Decision making", "Computational modeling",
			),
		},
		{
			Type:      models.RoleStudent,
			FirstName: "David",
			LastName:  "Kim",
			Title:     "Graduate Researcher",
			Bio:       "David builds pipelines for single-cell RNA sequencing analysis.",
			ResearchInterests: jsonList(
				"Single-cell genomics", "Bioinformatics",
			),
		},
		{
			Type:      models.RoleStudent,
			FirstName: "Lisa",
			LastName:  "Thompson",
			Title:     "PhD Student",
			Bio:       "Lisa applies deep learning to protein structure prediction.",
			ResearchInterests: jsonList(
				"Protein folding", "Deep learning",
			),
		},
		{
			Type:      models.RoleStudent,
			FirstName: "Ahmed",
			LastName:  "Hassan",
			Title:     "Doctoral Researcher",
			Bio:       "Ahmed characterizes decoherence sources in multi-qubit devices.",
			ResearchInterests: jsonList(
				"Qubit decoherence", "Cryogenic electronics",
			),
		},
		{
			Type:      models.RoleStudent,
			FirstName: "Nina",
			LastName:  "Petrov",
			Title:     "PhD Candidate",
			Bio:       "Nina develops fault-tolerant protocols for near-term quantum hardware.",
			ResearchInterests: jsonList(
				"Fault tolerance", "Quantum algorithms",
			),
		},
	}
}

// demoLabs liefert die drei Demo-Labs. Die Mitglieds-IDs kommen aus der
// User-Phase des Seedings.
func demoLabs(pis, students []uint) []models.Lab {
	established := func(year int) *time.Time {
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return []models.Lab{
		{
			Name:        "Cognitive Neuroscience Lab",
			Slug:        "cognitive-neuroscience-lab",
			Institution: "University Research Institute",
			Department:  "Department of Psychology",
			Description: "Investigating the neural mechanisms underlying human cognition, memory, and decision-making processes using behavioral experiments, neuroimaging, and computational modeling.",
			ResearchAreas: jsonList(
				"Cognitive Neuroscience", "Memory Systems", "Decision Making",
			),
			PrincipalInvestigators: []models.User{{ID: pis[0]}},
			Students:               []models.User{{ID: students[0]}, {ID: students[1]}},
			Building:               "Building A",
			Room:                   "301",
			Address:                "123 Research Drive",
			ContactEmail:           "coglab@example.com",
			Website:                "https://cogneurolab.example.com",
			Established:            established(2010),
		},
		{
			Name:        "Computational Biology Lab",
			Slug:        "computational-biology-lab",
			Institution: "University Research Institute",
			Department:  "Department of Biology",
			Description: "Developing computational methods to decode genomes and model cellular systems, from single-cell sequencing pipelines to protein structure prediction.",
			ResearchAreas: jsonList(
				"Genomics", "Machine Learning", "Systems Biology",
			),
			PrincipalInvestigators: []models.User{{ID: pis[1]}},
			Students:               []models.User{{ID: students[2]}, {ID: students[3]}},
			Building:               "Building C",
			Room:                   "114",
			Address:                "123 Research Drive",
			ContactEmail:           "compbio@example.com",
			Website:                "https://compbiolab.example.com",
			Established:            established(2015),
		},
		{
			Name:        "Quantum Information Lab",
			Slug:        "quantum-information-lab",
			Institution: "University Research Institute",
			Department:  "Department of Physics",
			Description: "Building and characterizing superconducting qubit systems, with a focus on error correction and fault-tolerant quantum computation.",
			ResearchAreas: jsonList(
				"Quantum Computing", "Error Correction",
			),
			PrincipalInvestigators: []models.User{{ID: pis[2]}},
			Students:               []models.User{{ID: students[4]}, {ID: students[5]}},
			Building:               "Physics Tower",
			Room:                   "B12",
			Address:                "45 Quantum Way",
			ContactEmail:           "qilab@example.com",
			Website:                "https://qilab.example.com",
			Established:            established(2018),
		},
	}
}

// demoJournal liefert das VOX-Journal mit den Admin-Herausgebern.
func demoJournal(editorIDs []uint) models.Journal {
	editors := make([]models.User, 0, len(editorIDs))
	for _, id := range editorIDs {
		editors = append(editors, models.User{ID: id})
	}
	return models.Journal{
		Name:                 "VOX",
		Slug:                 "vox",
		Description:          "VOX is an open-access journal publishing peer-reviewed research across the natural and computational sciences.",
		ISSN:                 "2999-1234",
		Scope:                "Original research, reviews, and methods papers in neuroscience, computational biology, and quantum information science.",
		SubmissionGuidelines: "Submissions must include an abstract, keywords, and a complete author list with one designated corresponding author.",
		Frequency:            "quarterly",
		OpenAccess:           true,
		Editors:              editors,
	}
}

// articleSeedRefs bündelt die IDs, die die Artikel-Fixtures referenzieren.
type articleSeedRefs struct {
	PIs      []uint
	Students []uint
	Labs     []uint
	Journal  uint
}

// demoArticles liefert die Demo-Artikel in verschiedenen Workflow-Stadien.
// Slug, Stempel und Status-Seiteneffekte setzt das Seeding über die
// Workflow-Funktionen, nicht die Fixtures.
func demoArticles(refs articleSeedRefs) []models.Article {
	journalID := refs.Journal
	return []models.Article{
		{
			Title:                 "Sleep-Dependent Consolidation of Episodic Memory Traces",
			Authors:               []models.User{{ID: refs.PIs[0]}, {ID: refs.Students[0]}},
			CorrespondingAuthorID: refs.PIs[0],
			LabID:                 &refs.Labs[0],
			JournalID:             &journalID,
			Abstract:              "We show that slow-wave sleep selectively strengthens hippocampal memory traces formed during pre-sleep learning.",
			Content:               "Introduction. Memory consolidation during sleep has been studied extensively...",
			Keywords:              jsonList("sleep", "memory consolidation", "EEG"),
			DOI:                   "10.99999/vox.2024.0001",
			Volume:                "2",
			Issue:                 "1",
			PagesStart:            "1",
			PagesEnd:              "18",
			Status:                models.StatusPublished,
		},
		{
			Title:                 "Single-Cell Atlas of Cortical Development",
			Authors:               []models.User{{ID: refs.PIs[1]}, {ID: refs.Students[2]}, {ID: refs.Students[3]}},
			CorrespondingAuthorID: refs.PIs[1],
			LabID:                 &refs.Labs[1],
			JournalID:             &journalID,
			Abstract:              "A single-cell RNA sequencing atlas covering twelve developmental stages of the mammalian cortex.",
			Content:               "Introduction. Cortical development proceeds through tightly orchestrated waves of neurogenesis...",
			Keywords:              jsonList("single-cell", "transcriptomics", "cortex"),
			DOI:                   "10.99999/vox.2024.0002",
			Volume:                "2",
			Issue:                 "1",
			PagesStart:            "19",
			PagesEnd:              "41",
			Status:                models.StatusPublished,
		},
		{
			Title:                 "Error Budgets for Surface-Code Logical Qubits",
			Authors:               []models.User{{ID: refs.PIs[2]}, {ID: refs.Students[4]}, {ID: refs.Students[5]}},
			CorrespondingAuthorID: refs.PIs[2],
			LabID:                 &refs.Labs[2],
			JournalID:             &journalID,
			Abstract:              "We decompose the logical error rate of a distance-5 surface code into physical error channels.",
			Content:               "Introduction. Quantum error correction promises exponential suppression of logical errors...",
			Keywords:              jsonList("quantum error correction", "surface code"),
			DOI:                   "10.99999/vox.2023.0007",
			Volume:                "1",
			Issue:                 "2",
			PagesStart:            "55",
			PagesEnd:              "78",
			Status:                models.StatusPublished,
		},
		{
			Title:                 "Dopaminergic Signatures of Value Updating in Humans",
			Authors:               []models.User{{ID: refs.Students[1]}, {ID: refs.PIs[0]}},
			CorrespondingAuthorID: refs.PIs[0],
			LabID:                 &refs.Labs[0],
			JournalID:             &journalID,
			Abstract:              "Model-based fMRI reveals dopaminergic midbrain responses tracking trial-by-trial value updates.",
			Content:               "Introduction. Value-based decision making relies on continuously updated reward expectations...",
			Keywords:              jsonList("decision making", "dopamine", "fMRI"),
			Volume:                "1",
			Issue:                 "1",
			Status:                models.StatusPublished,
		},
		{
			Title:                 "Attention Mechanisms Improve Protein Contact Prediction",
			Authors:               []models.User{{ID: refs.Students[3]}, {ID: refs.PIs[1]}},
			CorrespondingAuthorID: refs.PIs[1],
			LabID:                 &refs.Labs[1],
			JournalID:             &journalID,
			Abstract:              "A transformer architecture for residue contact prediction that outperforms convolutional baselines.",
			Content:               "Introduction. Contact prediction remains a key subproblem of protein structure prediction...",
			Keywords:              jsonList("protein structure", "deep learning"),
			Status:                models.StatusUnderReview,
		},
		{
			Title:                 "Cryogenic Crosstalk in Multiplexed Qubit Readout",
			Authors:               []models.User{{ID: refs.Students[4]}, {ID: refs.PIs[2]}},
			CorrespondingAuthorID: refs.PIs[2],
			LabID:                 &refs.Labs[2],
			JournalID:             &journalID,
			Abstract:              "We quantify readout crosstalk in frequency-multiplexed superconducting qubit systems.",
			Content:               "Introduction. As qubit counts grow, multiplexed readout becomes unavoidable...",
			Keywords:              jsonList("superconducting qubits", "readout"),
			Status:                models.StatusDraft,
		},
	}
}
