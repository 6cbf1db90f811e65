// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// UniversitiesURL is the public university-domains list.
const UniversitiesURL = "https://github.com/Hipo/university-domains-list/raw/refs/heads/master/world_universities_and_domains.json"

// Institution is one entry of the index.
type Institution struct {
	Name         string   `json:"name" yaml:"name"`
	Country      string   `json:"country" yaml:"country"`
	AlphaTwoCode string   `json:"alpha_two_code,omitempty" yaml:"alpha_two_code,omitempty"`
	Domains      []string `json:"domains,omitempty" yaml:"domains,omitempty"`
}

// LoadUniversities decodes the university-domains JSON array. Entries
// without a name or country are dropped.
func LoadUniversities(r io.Reader) ([]Institution, error) {
	var all []Institution
	if err := json.NewDecoder(r).Decode(&all); err != nil {
		return nil, fmt.Errorf("decoding university list: %w", err)
	}
	out := all[:0]
	for _, u := range all {
		if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Country) == "" {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// LoadOverrides reads a YAML list of institutions from path.
func LoadOverrides(path string) ([]Institution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides %s: %w", path, err)
	}
	var out []Institution
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing overrides %s: %w", path, err)
	}
	return out, nil
}

// DefaultOverrides returns the curated institutions missing from the public
// list: research labs, abbreviations, and spellings seen on committee
// pages. They are indexed after the public list, so they win on collision.
func DefaultOverrides() []Institution {
	out := make([]Institution, len(defaultOverrides))
	copy(out, defaultOverrides)
	return out
}

var defaultOverrides = []Institution{
	{Name: "télécom sudparis", Country: "France"},
	{Name: "ku leuven", Country: "Belgium"},
	{Name: "imec-distrinet, ku leuven", Country: "Belgium"},
	{Name: "university of crete", Country: "Greece"},
	{Name: "ucla", Country: "United States"},
	{Name: "tu munich", Country: "Germany"},
	{Name: "inesc-id & ist u. lisboa in Portugal", Country: "Portugal"},
	{Name: "ist lisbon & inesc-id", Country: "Portugal"},
	{Name: "mpi-sws", Country: "Germany"},
	{Name: "hkust", Country: "Hong Kong"},
	{Name: "uc irvine", Country: "United States"},
	{Name: "uiuc", Country: "United States"},
	{Name: "school of computer science, university college dublin", Country: "Ireland"},
	{Name: "imdea software institute", Country: "Spain"},
	{Name: "university of chinese academy of sciences", Country: "China"},
	{Name: "zhengqing", Country: "China"},
	{Name: "the university of utah", Country: "United States"},
	{Name: "institute of parallel and distributed systems, shanghai jiao tong university", Country: "China"},
	{Name: "computing and imaging institute - the university of utah", Country: "United States"},
	{Name: "university of crete & ics-forth", Country: "Greece"},
	{Name: "ics-forth", Country: "Greece"},
	{Name: "kaust", Country: "Saudi Arabia"},
	{Name: "lrz", Country: "Germany"},
	{Name: "ensta bretagne", Country: "France"},
	{Name: "institute of computing technology chinese academy of sciences", Country: "China"},
	{Name: "imdea networks institute & uc3m", Country: "Spain"},
	{Name: "hasso plattner institute", Country: "Germany"},
	{Name: "unist", Country: "South Korea"},
	{Name: "niccolò cusano university", Country: "Italy"},
	{Name: "uc irvine & mpi-sp", Country: "United States"},
	{Name: "univ. toulouse iii, irit", Country: "France"},
	{Name: "university of telepegaso,rome,italy", Country: "Italy"},
	{Name: "leibniz supercomputing center", Country: "Germany"},
	{Name: "inesc tec & u. minho", Country: "Portugal"},
	{Name: "barkhausen institut", Country: "Germany"},
	{Name: "the ohio state university", Country: "United States"},
	{Name: "cispa helmholtz center for information security", Country: "Germany"},
	{Name: "cispa", Country: "Germany"},
	{Name: "cuhk", Country: "Hong Kong"},
	{Name: "cuhk-shenzhen", Country: "China"},
	{Name: "kaist", Country: "South Korea"},
	{Name: "epfl", Country: "Switzerland"},
	{Name: "eth zurich", Country: "Switzerland"},
	{Name: "ethz", Country: "Switzerland"},
	{Name: "google", Country: "United States"},
	{Name: "microsoft research", Country: "United States"},
	{Name: "microsoft", Country: "United States"},
	{Name: "meta", Country: "United States"},
	{Name: "amazon", Country: "United States"},
	{Name: "ibm research", Country: "United States"},
	{Name: "intel labs", Country: "United States"},
	{Name: "vmware research", Country: "United States"},
	{Name: "bytedance", Country: "China"},
	{Name: "tencent", Country: "China"},
	{Name: "alibaba", Country: "China"},
	{Name: "huawei", Country: "China"},
	{Name: "inesc-id and instituto superior técnico", Country: "Portugal"},
	{Name: "inesc-id", Country: "Portugal"},
	{Name: "max planck institute for informatics", Country: "Germany"},
	{Name: "max planck institute for software systems", Country: "Germany"},
	{Name: "mpi-sp", Country: "Germany"},
	{Name: "mpi-inf", Country: "Germany"},
	{Name: "institute of software", Country: "China"},
	{Name: "institute of software, chinese academy of sciences", Country: "China"},
	{Name: "snu", Country: "South Korea"},
	{Name: "postech", Country: "South Korea"},
	{Name: "ntu", Country: "Singapore"},
	{Name: "nus", Country: "Singapore"},
	{Name: "sutd", Country: "Singapore"},
	{Name: "tu delft", Country: "Netherlands"},
	{Name: "tu darmstadt", Country: "Germany"},
	{Name: "tu berlin", Country: "Germany"},
	{Name: "tu wien", Country: "Austria"},
	{Name: "rwth aachen", Country: "Germany"},
	{Name: "rwth aachen university", Country: "Germany"},
	{Name: "inria", Country: "France"},
	{Name: "cea", Country: "France"},
	{Name: "cnrs", Country: "France"},
	{Name: "vrije universiteit amsterdam", Country: "Netherlands"},
	{Name: "vu amsterdam", Country: "Netherlands"},
	{Name: "sapienza university of rome", Country: "Italy"},
	{Name: "politecnico di milano", Country: "Italy"},
	{Name: "iisc", Country: "India"},
	{Name: "iit bombay", Country: "India"},
	{Name: "iit delhi", Country: "India"},
	{Name: "iit kanpur", Country: "India"},
	{Name: "iit madras", Country: "India"},
	{Name: "ucl", Country: "United Kingdom"},
	{Name: "imperial college london", Country: "United Kingdom"},
	{Name: "akamai technologies", Country: "United States"},
	{Name: "sandia national laboratories", Country: "United States"},
	{Name: "lawrence berkeley national laboratory", Country: "United States"},
	{Name: "pnnl", Country: "United States"},
	{Name: "pacific northwest national laboratory", Country: "United States"},
	{Name: "hewlett packard enterprise", Country: "United States"},
	{Name: "hewlett packard enterprise labs", Country: "United States"},
	{Name: "netflix", Country: "United States"},
	{Name: "linkedin", Country: "United States"},
	{Name: "blackberry", Country: "Canada"},
	{Name: "accenture labs", Country: "United States"},
	{Name: "mit csail", Country: "United States"},
	{Name: "baidu security", Country: "China"},
	{Name: "huawei technologies co.", Country: "China"},
	{Name: "orange labs", Country: "France"},
	{Name: "telefonica research", Country: "Spain"},
	{Name: "csiro's data61", Country: "Australia"},
	{Name: "csiro data61", Country: "Australia"},
}
