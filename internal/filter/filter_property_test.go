package filter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dandcg/emailarchive/internal/database/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Classification must be deterministic and total: the same email always
// lands in the same tier, and every email lands in a valid tier.

func TestProperty_ClassifyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	wordGen := gen.SliceOfN(12, gen.AlphaChar()).Map(func(chars []rune) string {
		return string(chars)
	})

	properties.Property("same_input_same_tier", prop.ForAll(
		func(subject, body, sender string, hasAttachments bool) bool {
			email := &models.Email{Subject: subject, BodyText: body, Sender: sender}
			first := Classify(email, hasAttachments)
			second := Classify(email, hasAttachments)
			return first == second && first.IsValid() && first != models.TierUnclassified
		},
		wordGen,
		wordGen,
		wordGen,
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestProperty_ShortBodyDemotion(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	// Bodies below the vectorization threshold, guaranteed free of
	// excluded-pattern keywords
	shortBodyGen := gen.IntRange(1, MinWordsForVectorization-1).FlatMap(
		func(n interface{}) gopter.Gen {
			return gen.SliceOfN(n.(int), gen.Identifier()).Map(func(words []string) string {
				return strings.Join(words, " ")
			})
		}, reflect.TypeOf(""))

	properties.Property("short_body_without_attachments_is_metadata_only", prop.ForAll(
		func(body string) bool {
			email := &models.Email{
				Subject:  "hello",
				BodyText: body,
				Sender:   "person@example.com",
			}
			return Classify(email, false) == models.TierMetadataOnly
		},
		shortBodyGen,
	))

	properties.Property("attachments_promote_short_body_to_vectorize", prop.ForAll(
		func(body string) bool {
			email := &models.Email{
				Subject:  "hello",
				BodyText: body,
				Sender:   "person@example.com",
			}
			return Classify(email, true) == models.TierVectorize
		},
		shortBodyGen,
	))

	properties.TestingRun(t)
}

func TestProperty_LongBodyVectorized(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	longBodyGen := gen.IntRange(MinWordsForVectorization, MinWordsForVectorization*3).FlatMap(
		func(n interface{}) gopter.Gen {
			return gen.SliceOfN(n.(int), gen.Identifier()).Map(func(words []string) string {
				return strings.Join(words, " ")
			})
		}, reflect.TypeOf(""))

	properties.Property("long_body_from_person_is_vectorize", prop.ForAll(
		func(body string) bool {
			email := &models.Email{
				Subject:  "catching up",
				BodyText: body,
				Sender:   "person@example.com",
			}
			return Classify(email, false) == models.TierVectorize
		},
		longBodyGen,
	))

	properties.TestingRun(t)
}
