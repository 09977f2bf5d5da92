package chatbot

import (
	"fmt"
	"strings"
)

const greetingMsg = "Hello! I'm here to help you request emergency resources. " +
	"I'll guide you through a few quick questions so we can get help to you as fast as possible.\n\n" +
	"**Can you describe your current situation?** " +
	"For example: what happened, what do you need most urgently?"

const resourceAskMsg = "I wasn't able to determine the type of resource you need. " +
	"Could you tell me what you need most? For example:\n" +
	"- Food\n- Water\n- Medical supplies\n- Shelter\n- Clothing\n- Evacuation\n- Volunteers\n- Financial aid"

const locationAskMsg = "Where are you located? Please provide as much detail as possible — " +
	"address, neighborhood, landmark, or GPS coordinates if you have them."

const peopleAskMsg = "How many people are with you who need help? " +
	"Are there any children, elderly, or people with disabilities in your group?"

const medicalAskMsg = "Does anyone in your group have medical needs or injuries that require attention? " +
	"If yes, please describe briefly."

const submittedMsg = "Your request has been submitted successfully! " +
	"A coordinator will review it shortly. " +
	"Your reference information has been saved.\n\n" +
	"If your situation changes, you can start a new conversation. Stay safe!"

const alreadySubmittedMsg = "Your request has already been submitted. " +
	"Start a new conversation if you need additional help."

const confirmRetryMsg = "Please confirm by saying **yes** to submit your request, " +
	"or **no** to start over."

const resourceRetryMsg = "I'm not sure what resource type that is. Could you pick one from this list?\n\n" +
	"- Food\n- Water\n- Medical\n- Shelter\n- Clothing\n- Evacuation\n- Volunteers\n- Financial Aid"

const resetMsg = "No problem! Let's start over.\n\n" +
	"**Can you describe your current situation?** " +
	"What happened and what do you need?"

func resourceConfirmMsg(types string) string {
	return fmt.Sprintf(
		"Based on what you've told me, it sounds like you need: **%s**.\n\n"+
			"Is that correct? If you need something different or additional, just let me know. "+
			"Otherwise, say **yes** to continue.", types)
}

func quantityAskMsg(resource string) string {
	return fmt.Sprintf(
		"How many **%s** units/items do you need? "+
			"And for how many people? (e.g., '5 water bottles for 3 people')", resource)
}

func buildConfirmation(d ExtractedData) string {
	resourceStr := "Not determined"
	if len(d.ResourceTypes) > 0 {
		names := make([]string, len(d.ResourceTypes))
		for i, t := range d.ResourceTypes {
			names[i] = string(t)
		}
		resourceStr = strings.Join(names, ", ")
	}

	medicalStr := "None reported"
	if d.HasMedicalNeeds {
		medicalStr = d.MedicalDetails
	}

	priorityStr := strings.ToUpper(d.RecommendedPriority)
	if d.PriorityEscalated {
		priorityStr += " (auto-escalated due to urgency signals)"
	}

	situation := d.SituationDescription
	if situation == "" {
		situation = "Not provided"
	} else if len(situation) > 200 {
		situation = situation[:200]
	}

	location := d.Location
	if location == "" {
		location = "Not provided"
	}

	return fmt.Sprintf(
		"Here's a summary of your request:\n\n"+
			"Situation: %s\n"+
			"Resource needed: %s\n"+
			"Quantity: %d\n"+
			"People: %d\n"+
			"Location: %s\n"+
			"Medical needs: %s\n"+
			"Priority: %s\n\n"+
			"Does this look correct? Say **yes** to submit or **no** to start over.",
		situation, resourceStr, d.Quantity, d.PeopleCount, location, medicalStr, priorityStr)
}
