package sources

import "context"

// SampleSourceName is the default source used by the scheduler.
const SampleSourceName = "discover_uni"

// SampleSource serves a fixed set of UK computer science courses.
type SampleSource struct{}

func NewSampleSource() *SampleSource { return &SampleSource{} }

func (*SampleSource) Name() string { return SampleSourceName }

func (*SampleSource) FetchBatch(ctx context.Context) ([]RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sampleRecords(), nil
}

func aLevel(typical, minimum string) []RawRequirement {
	return []RawRequirement{{
		RequirementType:     "A-Level",
		TypicalOffer:        typical,
		MinimumOffer:        minimum,
		SubjectRequirements: map[string]interface{}{"required": []interface{}{"Mathematics"}},
	}}
}

// Several universities publish G400; the last one processed owns the code.
func sampleRecords() []RawRecord {
	return []RawRecord{
		{
			UniversityName:    "University of Oxford",
			Location:          "Oxford",
			WebsiteURL:        "https://www.ox.ac.uk",
			CourseName:        "Computer Science",
			SubjectArea:       "Computer Science",
			Qualification:     "BA",
			DurationYears:     3,
			UcasCode:          "G400",
			CourseURL:         "https://www.ox.ac.uk/admissions/undergraduate/courses/computer-science",
			Year:              2024,
			EntryRequirements: aLevel("A*AA", "A*AA"),
		},
		{
			UniversityName:    "University of Cambridge",
			Location:          "Cambridge",
			WebsiteURL:        "https://www.cam.ac.uk",
			CourseName:        "Computer Science",
			SubjectArea:       "Computer Science",
			Qualification:     "BA",
			DurationYears:     3,
			UcasCode:          "G400",
			CourseURL:         "https://www.cam.ac.uk/courses/computer-science",
			Year:              2024,
			EntryRequirements: aLevel("A*A*A", "A*A*A"),
		},
		{
			UniversityName:    "Imperial College London",
			Location:          "London",
			WebsiteURL:        "https://www.imperial.ac.uk",
			CourseName:        "Computing",
			SubjectArea:       "Computer Science",
			Qualification:     "MEng",
			DurationYears:     4,
			UcasCode:          "G401",
			CourseURL:         "https://www.imperial.ac.uk/computing",
			Year:              2024,
			EntryRequirements: aLevel("A*A*A", "A*A*A"),
		},
		{
			UniversityName:    "University College London",
			Location:          "London",
			WebsiteURL:        "https://www.ucl.ac.uk",
			CourseName:        "Computer Science",
			SubjectArea:       "Computer Science",
			Qualification:     "BSc",
			DurationYears:     3,
			UcasCode:          "G400",
			CourseURL:         "https://www.ucl.ac.uk/computer-science",
			Year:              2024,
			EntryRequirements: aLevel("A*A*A", "A*AA"),
		},
		{
			UniversityName:    "University of Edinburgh",
			Location:          "Edinburgh",
			WebsiteURL:        "https://www.ed.ac.uk",
			CourseName:        "Computer Science",
			SubjectArea:       "Computer Science",
			Qualification:     "BSc",
			DurationYears:     4,
			UcasCode:          "G400",
			CourseURL:         "https://www.ed.ac.uk/computer-science",
			Year:              2024,
			EntryRequirements: aLevel("A*AA", "AAB"),
		},
	}
}
