package chat

// Fixed replies for utterances that never reach retrieval.
const (
	cannedGreeting  = "Halo! Saya Chef Chimi, asisten resep virtual Anda. Ada yang bisa saya bantu?"
	cannedSelfIntro = "Saya Chef Chimi! Saya siap membantu Anda menemukan resep masakan Indonesia dari database saya."
	cannedOffTopic  = "Maaf, sebagai Chef Chimi, saya hanya bisa membahas seputar resep masakan."
)

// cannedReply returns the fixed reply for the intent, or "" when the
// intent requires the retrieval path.
func cannedReply(intent Intent) string {
	switch intent {
	case IntentGreeting:
		return cannedGreeting
	case IntentSelfIntro:
		return cannedSelfIntro
	case IntentOffTopic:
		return cannedOffTopic
	default:
		return ""
	}
}
