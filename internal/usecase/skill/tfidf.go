// Package skill scores skill compatibility with TF-IDF cosine similarity over
// synonym-expanded skill lists.
package skill

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/usecase/synonym"
)

// Tokens turns skill labels into a bag of terms: each normalized label plus,
// for multi-word labels, its individual words.
func Tokens(skills []string) []string {
	var out []string
	for _, s := range skills {
		n := synonym.Normalize(s)
		if n == "" {
			continue
		}
		out = append(out, n)
		words := strings.FieldsFunc(n, func(r rune) bool {
			return unicode.IsSpace(r) || r == '/' || r == ','
		})
		if len(words) > 1 {
			out = append(out, words...)
		}
	}
	return out
}

// Cosine returns the TF-IDF cosine similarity of two bags of terms, treated as a
// two-document corpus with smoothed IDF. Returns the neutral score when either bag is empty.
func Cosine(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return domain.NeutralScore
	}

	tfA, tfB := termFreq(a), termFreq(b)
	vocab := make([]string, 0, len(tfA)+len(tfB))
	for t := range tfA {
		vocab = append(vocab, t)
	}
	for t := range tfB {
		if _, ok := tfA[t]; !ok {
			vocab = append(vocab, t)
		}
	}
	sort.Strings(vocab)

	va := make([]float64, len(vocab))
	vb := make([]float64, len(vocab))
	for i, t := range vocab {
		df := 0
		if tfA[t] > 0 {
			df++
		}
		if tfB[t] > 0 {
			df++
		}
		w := idf(2, df)
		va[i] = tfA[t] * w
		vb[i] = tfB[t] * w
	}

	na, nb := floats.Norm(va, 2), floats.Norm(vb, 2)
	if na == 0 || nb == 0 {
		return domain.NeutralScore
	}
	return domain.Clamp01(floats.Dot(va, vb) / (na * nb))
}

func termFreq(terms []string) map[string]float64 {
	tf := make(map[string]float64, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	n := float64(len(terms))
	for t := range tf {
		tf[t] /= n
	}
	return tf
}

// idf is the smoothed inverse document frequency ln((1+n)/(1+df)) + 1.
func idf(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}
