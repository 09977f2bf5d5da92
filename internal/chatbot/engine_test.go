package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func TestProcessMessage_GreetingThenSituation(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")

	first := ProcessMessage(sess, "hi")
	assert.Equal(t, StateAskSituation, first.State)

	second := ProcessMessage(sess, "Our house collapsed and we desperately need clean water")
	assert.Equal(t, StateAskResource, second.State)
	assert.Contains(t, second.Message, "Water")
}

func TestProcessMessage_ResourceConfirmThenQuantity(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	ProcessMessage(sess, "hi")
	ProcessMessage(sess, "we need clean water urgently")

	reply := ProcessMessage(sess, "yes")
	assert.Equal(t, StateAskQuantity, reply.State)
}

func TestProcessMessage_ResourceCorrection(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	ProcessMessage(sess, "hi")
	ProcessMessage(sess, "not sure what's going on")

	reply := ProcessMessage(sess, "we need food")
	assert.Equal(t, StateAskQuantity, reply.State)
	assert.Contains(t, sess.Extracted.ResourceTypes, models.ResourceFood)
}

func TestProcessMessage_QuantityDetectsPeopleCount(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateAskQuantity
	sess.Extracted = newExtractedData()

	reply := ProcessMessage(sess, "5 bottles for 3 people")
	assert.Equal(t, StateAskLocation, reply.State)
	assert.Equal(t, 5, sess.Extracted.Quantity)
	assert.Equal(t, 3, sess.Extracted.PeopleCount)
}

func TestProcessMessage_PeopleSkipsMedicalWhenAlreadyMentioned(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateAskPeople
	sess.Extracted = newExtractedData()

	reply := ProcessMessage(sess, "3 of us, one has a bad fever")
	assert.Equal(t, StateConfirm, reply.State)
	assert.True(t, sess.Extracted.HasMedicalNeeds)
	assert.Equal(t, true, reply.Metadata["skipped_medical_ask"])
}

func TestProcessMessage_MedicalNoMovesToConfirm(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateAskMedical
	sess.Extracted = newExtractedData()

	reply := ProcessMessage(sess, "no")
	assert.Equal(t, StateConfirm, reply.State)
	assert.False(t, sess.Extracted.HasMedicalNeeds)
}

func TestProcessMessage_ConfirmYesSubmits(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateConfirm
	sess.Extracted = newExtractedData()

	reply := ProcessMessage(sess, "yes")
	assert.Equal(t, StateSubmitted, reply.State)
	assert.Equal(t, true, reply.Metadata["submitted"])
}

func TestProcessMessage_ConfirmNoResets(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateConfirm
	sess.Extracted = newExtractedData()
	sess.Extracted.Location = "somewhere"

	reply := ProcessMessage(sess, "start over")
	assert.Equal(t, StateAskSituation, reply.State)
	assert.Equal(t, "", sess.Extracted.Location)
}

func TestProcessMessage_ConfirmAmbiguousReasks(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateConfirm
	sess.Extracted = newExtractedData()

	reply := ProcessMessage(sess, "maybe")
	assert.Equal(t, StateConfirm, reply.State)
	assert.Equal(t, true, reply.Metadata["awaiting_confirmation"])
}

func TestProcessMessage_AlreadySubmittedIsTerminal(t *testing.T) {
	store := NewStore()
	sess := store.GetOrCreate("")
	sess.State = StateSubmitted

	reply := ProcessMessage(sess, "anything")
	assert.Equal(t, StateSubmitted, reply.State)
	assert.Equal(t, true, reply.Metadata["already_submitted"])
}

func TestDetectYesNo(t *testing.T) {
	assert.True(t, detectYes("Yes!"))
	assert.True(t, detectYes("that's correct"))
	assert.False(t, detectYes("yes but also no"))
	assert.True(t, detectNo("nope"))
	assert.True(t, detectNo("start over"))
	assert.False(t, detectNo("not quite sure"))
}

func TestDetectMedical(t *testing.T) {
	assert.True(t, detectMedical("my leg is fractured"))
	assert.False(t, detectMedical("we just need a tent"))
}
